package engine

import "github.com/mazzlabs/sentinel/internal/llm"

// buildChainLocked composes the per-call sampler pipeline in fixed order:
// temperature scaling, top-p truncation (keeping at least one candidate),
// optional grammar constraint, final categorical draw with the fixed seed.
// A grammar that fails to compile degrades the chain to unconstrained
// sampling rather than failing the call.
//
// Chains are rebuilt for every generation so that concurrent parameter
// changes never race with an in-flight chain's composition.
func (e *Engine) buildChainLocked(grammarText string) llm.SamplerChain {
	stages := []llm.Stage{
		e.backend.TempStage(e.temperature),
		e.backend.TopPStage(e.topP, topPMinKeep),
	}
	if grammarText != "" {
		gs, err := e.backend.GrammarStage(e.vocab, grammarText, grammarRoot)
		if err != nil {
			e.log.Warn("failed to create grammar sampler, sampling unconstrained", "err", err)
		} else {
			stages = append(stages, gs)
		}
	}
	stages = append(stages, e.backend.DistStage(samplerSeed))
	return e.backend.NewChain(stages...)
}
