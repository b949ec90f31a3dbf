package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/routeway/pkg/routeway"
)

var (
	chatModel       string
	chatStream      bool
	chatSystem      string
	chatMaxTokens   int
	chatTemperature float64
)

var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Send a chat completion request",
	Long: `Send a prompt to the chat completion endpoint and print the reply.

With --stream, tokens are printed as they arrive instead of waiting
for the complete response.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client, cleanup, err := newClient(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		req := &routeway.ChatCompletionRequest{
			Model: chatModel,
		}
		if chatSystem != "" {
			req.Messages = append(req.Messages, routeway.SystemMessage(chatSystem))
		}
		req.Messages = append(req.Messages, routeway.UserMessage(strings.Join(args, " ")))
		if chatMaxTokens > 0 {
			req.MaxTokens = chatMaxTokens
		}
		if cmd.Flags().Changed("temperature") {
			req.Temperature = &chatTemperature
		}

		if chatStream {
			return runStreamingChat(cmd, client, req)
		}
		return runBlockingChat(cmd, client, req)
	},
}

func runBlockingChat(cmd *cobra.Command, client *routeway.Client, req *routeway.ChatCompletionRequest) error {
	resp, err := client.ChatCompletion(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Println(resp.Choices[0].Message.Content)

	if verbose {
		fmt.Fprintf(os.Stderr, "tokens: %d prompt, %d completion\n",
			resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}
	return nil
}

func runStreamingChat(cmd *cobra.Command, client *routeway.Client, req *routeway.ChatCompletionRequest) error {
	stream, err := client.ChatCompletionStream(cmd.Context(), req)
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		for _, choice := range chunk.Choices {
			fmt.Print(choice.Delta.Content)
		}
	}
	fmt.Println()
	return nil
}

func init() {
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "model identifier (required)")
	chatCmd.Flags().BoolVar(&chatStream, "stream", false, "stream tokens as they arrive")
	chatCmd.Flags().StringVar(&chatSystem, "system", "", "system prompt")
	chatCmd.Flags().IntVar(&chatMaxTokens, "max-tokens", 0, "completion token limit")
	chatCmd.Flags().Float64Var(&chatTemperature, "temperature", 0, "sampling temperature")
	chatCmd.MarkFlagRequired("model")

	rootCmd.AddCommand(chatCmd)
}
