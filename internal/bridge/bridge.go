// Package bridge is the boundary exposed to the host caller. Every
// operation takes and returns plain values; inference operations always
// return a JSON string and never propagate an error or panic across the
// boundary.
package bridge

import (
	"errors"

	json "github.com/goccy/go-json"

	"github.com/mazzlabs/sentinel/internal/engine"
	"github.com/mazzlabs/sentinel/internal/logger"
)

// BlockedPayload is returned when the injection denylist matches; the
// request never reaches the model.
const BlockedPayload = `{"action":"none","reasoning":"blocked"}`

// failurePayload is the synthesized response shape for hard failures.
type failurePayload struct {
	Action    string `json:"action"`
	Reasoning string `json:"reasoning"`
}

// Bridge wraps one engine instance.
type Bridge struct {
	engine *engine.Engine
	log    logger.Logger
}

// New returns a bridge over eng.
func New(eng *engine.Engine, log logger.Logger) *Bridge {
	if log == nil {
		log = logger.Default()
	}
	return &Bridge{engine: eng, log: log}
}

// InitModel loads weights from modelPath and optionally a grammar from
// grammarPath. It reports success; on failure the engine is left fully
// reset.
func (b *Bridge) InitModel(modelPath, grammarPath string) bool {
	return b.engine.Initialize(modelPath, grammarPath) == nil
}

// Infer runs the full pipeline with the built-in action-schema system
// prompt and the grammar loaded at init time.
func (b *Bridge) Infer(userQuery, screenContext string) string {
	return b.run(userQuery, screenContext, engine.InferOptions{})
}

// InferWithGrammar runs the pipeline with a grammar loaded ad hoc from
// grammarPath for this call only, using screenContext directly as the
// system prompt. A missing grammar file degrades to unconstrained
// sampling.
func (b *Bridge) InferWithGrammar(userQuery, screenContext, grammarPath string) string {
	grammar := engine.ReadGrammar(grammarPath, b.log)
	return b.run(userQuery, screenContext, engine.InferOptions{
		RawSystemPrompt: true,
		GrammarOverride: &grammar,
	})
}

// InferWithoutGrammar forces unconstrained sampling regardless of any
// loaded grammar. Intended as the fallback when constrained generation
// fails.
func (b *Bridge) InferWithoutGrammar(userQuery, screenContext string) string {
	none := ""
	return b.run(userQuery, screenContext, engine.InferOptions{GrammarOverride: &none})
}

func (b *Bridge) run(userQuery, screenContext string, opts engine.InferOptions) string {
	result, err := b.engine.Infer(userQuery, screenContext, opts)
	if err != nil {
		if errors.Is(err, engine.ErrInjectionBlocked) {
			return BlockedPayload
		}
		b.log.Error("inference failed", "err", err)
		return FailureJSON(err.Error())
	}
	if result.Truncated {
		b.log.Warn("inference result truncated", "bytes", len(result.Text))
	}
	return result.Text
}

// ReleaseModel frees all model resources. Idempotent.
func (b *Bridge) ReleaseModel() {
	b.log.Info("releasing model resources")
	b.engine.Release()
}

// IsModelReady reports whether a model is loaded and ready for inference.
func (b *Bridge) IsModelReady() bool {
	return b.engine.Ready()
}

// GetModelInfo returns model metadata as JSON: {"loaded":false} or
// {"loaded":true,"n_vocab":...,"n_ctx_train":...,"n_ctx":...}.
func (b *Bridge) GetModelInfo() string {
	data, err := json.Marshal(b.engine.Info())
	if err != nil {
		return `{"loaded":false}`
	}
	return string(data)
}

// SetInferenceParams updates temperature, top-p and the generation cap.
func (b *Bridge) SetInferenceParams(temperature, topP float32, maxTokens int) {
	b.engine.SetParams(temperature, topP, maxTokens)
}

// FailureJSON synthesizes the hard-failure payload for cause.
func FailureJSON(cause string) string {
	data, err := json.Marshal(failurePayload{Action: "NONE", Reasoning: cause})
	if err != nil {
		return `{"action":"NONE","reasoning":"internal error"}`
	}
	return string(data)
}
