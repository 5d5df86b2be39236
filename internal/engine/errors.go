package engine

import "errors"

// Hard-failure sentinels for the inference pipeline. Their text doubles as
// the "reasoning" field of boundary payloads, so the exact wording is part
// of the contract with host callers.
var (
	ErrModelNotLoaded  = errors.New("Model not loaded")
	ErrTokenization    = errors.New("Failed to tokenize prompt")
	ErrContextOverflow = errors.New("Prompt too long for context window")
	ErrPromptDecode    = errors.New("Failed to process prompt")
	ErrSamplerInit     = errors.New("Failed to create sampler")
)

// ErrInjectionBlocked is a policy short-circuit, not a failure: the query
// matched the injection denylist and never reached the model.
var ErrInjectionBlocked = errors.New("blocked")
