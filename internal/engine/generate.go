package engine

import (
	"fmt"
	"time"

	"github.com/mazzlabs/sentinel/internal/llm"
)

// Stats summarizes one generation call.
type Stats struct {
	PromptTokens    int
	TokensGenerated int
	Duration        time.Duration
}

// Result is the outcome of a generation call. Truncated reports that the
// output buffer's soft cap (8 bytes per budgeted token) was reached and
// trailing bytes were dropped.
type Result struct {
	Text      string
	Truncated bool
	Stats     Stats
}

// generateLocked drives the autoregressive decode loop. The caller must
// hold the exclusive lock.
//
// Hard preconditions (readiness, tokenization, context budget, prompt
// decode, sampler construction) fail the call. Once token emission starts,
// a decode failure stops generation early and returns the text accumulated
// so far.
func (e *Engine) generateLocked(promptText, grammarText string) (*Result, error) {
	if !e.readyLocked() {
		return nil, ErrModelNotLoaded
	}

	tokens := e.tokenizeLocked(promptText, true)
	if len(tokens) == 0 {
		return nil, ErrTokenization
	}
	e.log.Debug("prompt tokenized", "tokens", len(tokens))

	// Reserve exactly maxTokens slots of the context for generation.
	if len(tokens) > e.contextWindow-e.maxTokens {
		return nil, ErrContextOverflow
	}

	// Every call is independent: drop any retained cache state.
	e.session.ClearMemory()

	if err := e.session.Decode(tokens); err != nil {
		e.log.Error("prompt decode failed", "tokens", len(tokens), "err", err)
		return nil, ErrPromptDecode
	}

	chain := e.buildChainLocked(grammarText)
	if chain == nil {
		return nil, ErrSamplerInit
	}
	defer chain.Free()

	limit := e.maxTokens * 8
	out := make([]byte, 0, limit)
	truncated := false
	piece := make([]byte, 128)
	single := make([]llm.Token, 1)

	start := time.Now()
	stats := Stats{PromptTokens: len(tokens)}

	for i := 0; i < e.maxTokens; i++ {
		tok, err := chain.Sample(e.session)
		if err != nil {
			e.log.Error("sampler error during sample", "step", i, "err", err)
			return nil, fmt.Errorf("Sampler error: %v", err)
		}

		if e.vocab.IsEOG(tok) {
			e.log.Debug("end of generation", "step", i)
			break
		}

		if n := e.vocab.TokenPiece(tok, piece); n > 0 {
			if room := limit - len(out); n > room {
				n = room
				truncated = true
			}
			out = append(out, piece[:n]...)
		}

		if err := chain.Accept(tok); err != nil {
			e.log.Error("sampler error during accept", "step", i, "err", err)
			return nil, fmt.Errorf("Sampler error: %v", err)
		}

		single[0] = tok
		if err := e.session.Decode(single); err != nil {
			e.log.Warn("decode failed mid-generation, returning partial output",
				"step", i, "err", err)
			break
		}
		stats.TokensGenerated++
	}

	stats.Duration = time.Since(start)
	if truncated {
		e.log.Warn("output buffer cap reached, response truncated", "bytes", len(out))
	}
	e.log.Debug("generated response", "bytes", len(out), "tokens", stats.TokensGenerated)

	return &Result{Text: string(out), Truncated: truncated, Stats: stats}, nil
}
