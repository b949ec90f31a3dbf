// Routeway is a command-line client for the Routeway chat completion
// API.
//
// Usage:
//
//	# Send a prompt and print the reply
//	routeway chat --model routeway-small "explain SSE in one sentence"
//
//	# Stream tokens as they arrive
//	routeway chat --stream --model routeway-small "write a haiku"
//
//	# List available models
//	routeway models
//
//	# Show local token usage
//	routeway usage --days 7
//
//	# Show version information
//	routeway version
//
// The API key is read from the ROUTEWAY_API_KEY environment variable
// or the config file.
package main

func main() {
	Execute()
}
