package types

// InferRequest represents an inference request payload.
type InferRequest struct {
	// Optional caller-supplied request identifier used for cancellation.
	// Must be unique among live requests; if empty the server assigns one.
	// example: 4f6b9c1e
	RequestID string `json:"request_id,omitempty" example:"4f6b9c1e"`
	// Optional model identifier. If empty, the server default is used.
	// example: tinyllama-q4
	Model string `json:"model,omitempty" example:"tinyllama-q4"`
	// Required prompt text to generate a completion for.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
	// Maximum number of new tokens to generate.
	// example: 128
	MaxTokens int `json:"max_tokens,omitempty" example:"128"`
	// Sampling temperature (higher = more random).
	// example: 0.7
	Temperature float64 `json:"temperature,omitempty" example:"0.7"`
	// Nucleus sampling probability.
	// example: 0.9
	TopP float64 `json:"top_p,omitempty" example:"0.9"`
	// Top-K sampling: limit candidates to top K tokens.
	// example: 40
	TopK int `json:"top_k,omitempty" example:"40"`
	// Optional stop sequences. Generation stops when any sequence is matched.
	// example: ["\n\n","END"]
	Stop []string `json:"stop,omitempty" example:"[\"\\n\\n\",\"END\"]"`
	// Random seed for reproducibility; 0 or omitted lets the server choose.
	// example: 42
	Seed int64 `json:"seed,omitempty" example:"42"`
	// Repeat penalty applied by the llama sampler.
	// example: 1.1
	RepeatPenalty float64 `json:"repeat_penalty,omitempty" example:"1.1"`
}

// TokenizeRequest asks for the token count of a piece of text.
type TokenizeRequest struct {
	// Optional model identifier. If empty, the server default is used.
	// example: tinyllama-q4
	Model string `json:"model,omitempty" example:"tinyllama-q4"`
	// Required input text to tokenize.
	// example: The quick brown fox
	Input string `json:"input" example:"The quick brown fox"`
}

// TokenizeResponse is returned by POST /tokenize.
type TokenizeResponse struct {
	// Number of tokens the input encodes to, including special tokens.
	// example: 7
	Count int `json:"count" example:"7"`
}

// CancelResponse acknowledges a cancellation request.
type CancelResponse struct {
	// The request identifier that was marked cancelled.
	// example: 4f6b9c1e
	RequestID string `json:"request_id" example:"4f6b9c1e"`
	// Always true on acknowledgement; cancellation itself is best-effort.
	// example: true
	Cancelled bool `json:"cancelled" example:"true"`
}

// ClearCacheResponse reports the outcome of POST /cache/clear.
type ClearCacheResponse struct {
	// Number of cache entries released or detached.
	// example: 2
	Cleared int `json:"cleared" example:"2"`
	// Whether the clear was forced past active borrowers.
	// example: false
	Forced bool `json:"forced" example:"false"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of available models.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// CacheEntryStatus summarizes one cached model resource for /status.
type CacheEntryStatus struct {
	// Absolute path of the model file the resource was loaded from.
	// example: /home/user/models/TinyLlama.Q4_K_M.gguf
	Path string `json:"path" example:"/home/user/models/TinyLlama.Q4_K_M.gguf"`
	// Number of in-progress operations currently borrowing this resource.
	// example: 1
	ActiveUsers int `json:"active_users" example:"1"`
	// Seconds since the resource was last used.
	// example: 12
	IdleSeconds int64 `json:"idle_seconds" example:"12"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Cached model resources.
	Cache []CacheEntryStatus `json:"cache"`
	// Number of tasks waiting in the FIFO queue.
	// example: 3
	QueueDepth int `json:"queue_depth" example:"3"`
	// Resources removed from the cache but still borrowed; freed on last release.
	// example: 0
	PendingFrees int `json:"pending_frees" example:"0"`
	// True once the scheduler has been shut down.
	// example: false
	Closed bool `json:"closed" example:"false"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
