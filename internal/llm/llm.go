// Package llm defines the boundary to the underlying inference library.
//
// The engine drives the library exclusively through these interfaces:
// load/free model, create/free session, tokenize, render chat template,
// build/free sampler stages, sample, decode, detect end-of-generation and
// render a token back to text. Tensor math, GPU offload and the tokenizer
// and grammar algorithms themselves live behind this boundary and are never
// reimplemented on this side of it.
package llm

// Token is a vocabulary token id.
type Token int32

// ChatMessage is one entry of an ordered chat transcript handed to the
// template renderer.
type ChatMessage struct {
	Role    string
	Content string
}

// ModelParams configures weight loading.
type ModelParams struct {
	// GPULayers is the number of layers offered to the GPU backend.
	GPULayers int
}

// SessionParams configures inference context creation.
type SessionParams struct {
	ContextWindow int
	BatchSize     int
}

// Backend is a loaded inference library. A Backend is created once per
// process surface and owns library-wide state; Close tears that state down.
type Backend interface {
	// Load reads model weights from path. A missing or corrupt file is a
	// hard failure.
	Load(path string, params ModelParams) (Model, error)

	// TempStage scales logits by the inverse temperature. Degenerate values
	// (<= 0) must behave as near-greedy, not fail.
	TempStage(temperature float32) Stage
	// TopPStage truncates to the nucleus of cumulative probability p,
	// always retaining at least minKeep candidates.
	TopPStage(p float32, minKeep int) Stage
	// GrammarStage constrains sampling to sentences of the grammar rooted
	// at root. Construction fails if the grammar does not compile.
	GrammarStage(v Vocab, grammar, root string) (Stage, error)
	// DistStage draws the final token from the surviving distribution
	// using the given seed.
	DistStage(seed uint32) Stage
	// NewChain composes stages in order into a chain owned by the caller.
	NewChain(stages ...Stage) SamplerChain

	// RenderTemplate renders msgs through tmpl (empty tmpl selects the
	// library's built-in default). The calling convention is two-pass:
	// called with an empty dst it returns the required buffer size; called
	// with a large enough dst it renders into it and returns the size
	// again. The sizing pass may overestimate, so the caller trims the
	// rendered bytes at the first NUL. A non-positive return means the
	// template cannot be rendered.
	RenderTemplate(tmpl string, msgs []ChatMessage, addAssistant bool, dst []byte) int

	Close()
}

// Model is a handle to loaded weights.
type Model interface {
	// Vocab returns the model vocabulary. The returned value is a view
	// whose lifetime is tied to the model; it is never freed on its own.
	Vocab() Vocab
	// ChatTemplate reports the model-provided chat template, if any.
	ChatTemplate() (string, bool)
	// TrainedContextWindow is the context length the model was trained at.
	TrainedContextWindow() int
	// NewSession creates an inference context bound to this model.
	NewSession(params SessionParams) (Session, error)
	Free()
}

// Session is a mutable inference context holding the key/value cache.
type Session interface {
	ContextWindow() int
	// ClearMemory drops the retained key/value cache so the next decode
	// sees no stale history.
	ClearMemory()
	// Decode feeds tokens through the model, extending the cache.
	Decode(tokens []Token) error
	Free()
}

// Vocab exposes the model vocabulary.
type Vocab interface {
	NumTokens() int
	// Tokenize writes the token ids of text into dst and returns the
	// count. When dst is too small it returns the negated required size
	// so the caller can reallocate and retry. addLeading requests the
	// tokenizer's leading marker token.
	Tokenize(text string, dst []Token, addLeading bool) int
	// IsEOG reports whether t is an end-of-generation marker.
	IsEOG(t Token) bool
	// TokenPiece renders the text of t into buf and returns the number of
	// bytes written, or a value <= 0 when the token has no text.
	TokenPiece(t Token, buf []byte) int
}

// Stage is one token-selection step of a sampler chain. Stages are opaque
// to the engine; only their composition order matters. Backend packages
// satisfy the interface by embedding StageMarker.
type Stage interface {
	stage()
}

// StageMarker is embedded by backend stage implementations to satisfy
// Stage, keeping the interface closed to accidental implementations.
type StageMarker struct{}

func (StageMarker) stage() {}

// SamplerChain is an ordered pipeline of stages. Chains are single-use
// state: Accept must be called for every token kept, and Free must run on
// every exit path.
type SamplerChain interface {
	// Sample picks the next token from the session's current logits.
	Sample(s Session) (Token, error)
	// Accept advances stateful stages (grammar state in particular) past
	// the chosen token.
	Accept(t Token) error
	Free()
}
