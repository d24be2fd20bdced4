package types

// Model represents a discoverable LLM model file on disk.
type Model struct {
	// Stable identifier for the model (the file name by default).
	// example: tinyllama-q4.gguf
	ID string `json:"id" example:"tinyllama-q4.gguf"`
	// Human-friendly name.
	// example: TinyLlama (Q4)
	Name string `json:"name" example:"TinyLlama (Q4)"`
	// Absolute path to the model file on disk.
	// example: /home/user/models/TinyLlama.Q4_K_M.gguf
	Path string `json:"path" example:"/home/user/models/TinyLlama.Q4_K_M.gguf"`
	// File size in bytes as reported at scan time.
	// example: 668788096
	SizeBytes int64 `json:"size_bytes,omitempty" example:"668788096"`
}
