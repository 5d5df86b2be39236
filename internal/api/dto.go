package api

// InferRequest is the body of POST /v1/infer.
type InferRequest struct {
	// Query is the user instruction ("tap login").
	Query string `json:"query"`
	// Screen is the textual screen description.
	Screen string `json:"screen"`
	// GrammarPath loads a grammar ad hoc for this call; the screen text is
	// then used directly as the system prompt.
	GrammarPath string `json:"grammar_path,omitempty"`
	// NoGrammar forces unconstrained sampling.
	NoGrammar bool `json:"no_grammar,omitempty"`
}

// InferStats mirrors engine.Stats over the wire.
type InferStats struct {
	PromptTokens    int   `json:"prompt_tokens"`
	TokensGenerated int   `json:"tokens_generated"`
	DurationMS      int64 `json:"duration_ms"`
}

// InferResponse is the body returned by POST /v1/infer. Output is always a
// JSON action payload, synthesized locally on failure.
type InferResponse struct {
	ID        string      `json:"id"`
	Object    string      `json:"object"`
	CreatedAt int64       `json:"created_at"`
	Output    string      `json:"output"`
	Blocked   bool        `json:"blocked,omitempty"`
	Failed    bool        `json:"failed,omitempty"`
	Truncated bool        `json:"truncated,omitempty"`
	Stats     *InferStats `json:"stats,omitempty"`
}

// LoadRequest is the body of POST /v1/model/load.
type LoadRequest struct {
	ModelPath   string `json:"model_path"`
	GrammarPath string `json:"grammar_path,omitempty"`
}

// ParamsRequest is the body of POST /v1/model/params.
type ParamsRequest struct {
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens"`
}

// StatusResponse acknowledges state-changing model operations.
type StatusResponse struct {
	Loaded   bool `json:"loaded,omitempty"`
	Released bool `json:"released,omitempty"`
	Updated  bool `json:"updated,omitempty"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
