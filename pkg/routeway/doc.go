// Package routeway is a client SDK for the Routeway chat-completions
// API and other OpenAI-compatible backends.
//
// It provides a single Client with blocking chat completions, streamed
// chat completions decoded incrementally from the server's event
// stream, and the models endpoints. Transient failures (connection
// errors, rate limits, 5xx responses) are retried with capped
// exponential backoff; authentication and request errors are not.
//
// # Basic Usage
//
//	client, err := routeway.New(routeway.WithAPIKey(os.Getenv("ROUTEWAY_API_KEY")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	resp, err := client.ChatCompletion(context.Background(), &routeway.ChatCompletionRequest{
//	    Model:    "gpt-4o-mini",
//	    Messages: []routeway.Message{routeway.UserMessage("Hello!")},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Choices[0].Message.Content)
//
// # Streaming
//
//	stream, err := client.ChatCompletionStream(ctx, req)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//
//	for {
//	    chunk, err := stream.Recv()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(chunk.Choices[0].Delta.Content)
//	}
//
// Errors are typed: use errors.As with *AuthError, *RateLimitError,
// *ServerError, *TransportError, *DecodeError, *ValidationError, or
// the generic *APIError to branch on failure kind.
package routeway
