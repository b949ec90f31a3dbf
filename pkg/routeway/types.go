package routeway

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Finish reason constants
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonToolCalls     = "tool_calls"
	FinishReasonContentFilter = "content_filter"
)

// Tool type constants
const (
	ToolTypeFunction = "function"
)

// Message represents a single message in a conversation.
// Messages are owned by the caller and copied into the request body;
// the client never mutates them.
type Message struct {
	// Role identifies the message sender (system, user, assistant, tool)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`

	// Name is an optional name for the message sender
	Name string `json:"name,omitempty"`

	// ToolCalls contains tool calls made by the assistant (assistant role only)
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID references the tool call this message responds to (tool role only)
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolCall represents a tool invocation requested by the model.
type ToolCall struct {
	// ID is a unique identifier for this tool call
	ID string `json:"id"`

	// Type is the tool call type (currently always "function")
	Type string `json:"type"`

	// Function contains the function name and arguments
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the name and serialized arguments of a call.
type FunctionCall struct {
	// Name is the function to call
	Name string `json:"name"`

	// Arguments is a JSON string containing the call arguments
	Arguments string `json:"arguments"`
}

// Tool wraps a function definition the model may call.
type Tool struct {
	// Type is the tool type (currently always "function")
	Type string `json:"type"`

	// Function is the wrapped function definition
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition defines a callable function.
type FunctionDefinition struct {
	// Name is the function name. Must be non-empty and unique within
	// a request's tool list.
	Name string `json:"name"`

	// Description explains what the function does
	Description string `json:"description,omitempty"`

	// Parameters is a JSON Schema object describing the parameters
	Parameters map[string]any `json:"parameters,omitempty"`
}

// StreamOptions configures streaming behavior. Only meaningful when
// the request is streamed.
type StreamOptions struct {
	// IncludeUsage requests that the terminal chunk carry aggregate
	// token usage counts.
	IncludeUsage bool `json:"include_usage"`
}

// ReasoningConfig controls reasoning behavior for models that support it.
type ReasoningConfig struct {
	// Type enables or disables reasoning ("enabled" or "disabled")
	Type string `json:"type"`

	// MaxTokens caps the reasoning token budget
	MaxTokens int `json:"max_tokens,omitempty"`

	// Budget is an alternative provider-specific budget field
	Budget int `json:"budget,omitempty"`
}

// ChatCompletionRequest is the body of a chat completion call.
//
// Optional sampling parameters are pointers so that explicit zero
// values survive serialization.
type ChatCompletionRequest struct {
	// Model is the model identifier. Required, non-empty.
	Model string `json:"model"`

	// Messages is the conversation history. Required, non-empty.
	Messages []Message `json:"messages"`

	// Temperature controls randomness (0.0 to 2.0)
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `json:"max_tokens,omitempty"`

	// TopP controls nucleus sampling (0.0 to 1.0)
	TopP *float64 `json:"top_p,omitempty"`

	// FrequencyPenalty reduces repetition based on frequency (-2.0 to 2.0)
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`

	// PresencePenalty reduces repetition (-2.0 to 2.0)
	PresencePenalty *float64 `json:"presence_penalty,omitempty"`

	// Stop sequences that will halt generation
	Stop []string `json:"stop,omitempty"`

	// Tools is a list of tools the model can call
	Tools []Tool `json:"tools,omitempty"`

	// ToolChoice controls which tools can be called.
	// Can be "none", "auto", or {"type":"function","function":{"name":"..."}}
	ToolChoice any `json:"tool_choice,omitempty"`

	// Reasoning configures reasoning-capable models
	Reasoning *ReasoningConfig `json:"reasoning,omitempty"`

	// Stream requests an incremental event-stream response. Set
	// implicitly by ChatCompletionStream.
	Stream bool `json:"stream,omitempty"`

	// StreamOptions configures streaming. Only valid when streaming.
	StreamOptions *StreamOptions `json:"stream_options,omitempty"`

	// User is an optional end-user identifier for abuse monitoring
	User string `json:"user,omitempty"`
}

// Usage tracks token consumption for a request.
type Usage struct {
	// PromptTokens is the number of tokens in the prompt
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is prompt + completion
	TotalTokens int `json:"total_tokens"`

	// ReasoningTokens counts reasoning tokens, when reported
	ReasoningTokens int `json:"reasoning_tokens,omitempty"`
}

// Choice is one completion alternative in a response.
type Choice struct {
	// Index is the position of this choice in the response
	Index int `json:"index"`

	// Message is the generated assistant message
	Message Message `json:"message"`

	// FinishReason indicates why generation stopped
	// (stop, length, tool_calls, content_filter)
	FinishReason string `json:"finish_reason,omitempty"`
}

// ChatCompletionResponse is a complete, non-streamed response.
type ChatCompletionResponse struct {
	// ID is the unique response identifier
	ID string `json:"id"`

	// Object is the response object type ("chat.completion")
	Object string `json:"object,omitempty"`

	// Created is the Unix timestamp when the response was created
	Created int64 `json:"created"`

	// Model is the model that generated the response
	Model string `json:"model"`

	// Choices holds the generated completions, in index order
	Choices []Choice `json:"choices"`

	// Usage contains token consumption, when reported
	Usage *Usage `json:"usage,omitempty"`

	// SystemFingerprint identifies the backend configuration
	SystemFingerprint string `json:"system_fingerprint,omitempty"`
}

// Delta is the incremental portion of an assistant message carried by
// one streaming chunk.
type Delta struct {
	// Role is set on the first chunk of a message
	Role string `json:"role,omitempty"`

	// Content is the incremental text content
	Content string `json:"content,omitempty"`

	// ToolCalls contains incremental tool call fragments
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ReasoningContent is incremental reasoning output, when present
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

// ChunkChoice is one choice delta in a streaming chunk.
type ChunkChoice struct {
	// Index is the position of this choice
	Index int `json:"index"`

	// Delta is the incremental content
	Delta Delta `json:"delta"`

	// FinishReason is set on the final chunk of a choice
	FinishReason string `json:"finish_reason,omitempty"`
}

// ChatCompletionChunk is one decoded unit of a streamed response. Each
// chunk is immutable; the caller accumulates deltas across the
// sequence to reconstruct the full message.
type ChatCompletionChunk struct {
	// ID is the response identifier (same across all chunks)
	ID string `json:"id"`

	// Object is the chunk object type ("chat.completion.chunk")
	Object string `json:"object,omitempty"`

	// Created is the Unix timestamp when the chunk was created
	Created int64 `json:"created"`

	// Model is the model generating the response
	Model string `json:"model"`

	// Choices holds the choice deltas, in index order. May be empty
	// on a usage-only terminal chunk.
	Choices []ChunkChoice `json:"choices"`

	// Usage is present on the terminal chunk when requested via
	// StreamOptions.IncludeUsage.
	Usage *Usage `json:"usage,omitempty"`
}

// Model describes a model available through the API.
type Model struct {
	// ID is the model identifier
	ID string `json:"id"`

	// Object is the object type ("model")
	Object string `json:"object,omitempty"`

	// Created is the Unix timestamp when the model was published
	Created int64 `json:"created,omitempty"`

	// OwnedBy identifies the model's owner
	OwnedBy string `json:"owned_by,omitempty"`
}

// ModelList is the response of the models listing endpoint.
type ModelList struct {
	// Object is the object type ("list")
	Object string `json:"object,omitempty"`

	// Data holds the available models
	Data []Model `json:"data"`
}
