// Package engine owns the model, session and vocabulary handles and drives
// the inference pipeline: sanitize, compose, tokenize, sample, decode. One
// engine holds one loaded model; every operation serializes through a
// single reader/writer lock, so at most one generation runs at a time.
package engine

import (
	"os"
	"sync"

	"github.com/mazzlabs/sentinel/internal/llm"
	"github.com/mazzlabs/sentinel/internal/logger"
	"github.com/mazzlabs/sentinel/internal/prompt"
	"github.com/mazzlabs/sentinel/internal/sanitize"
)

const (
	maxQueryLen  = 2048
	maxScreenLen = 32000

	// samplerSeed is fixed so that output is a deterministic function of
	// prompt, parameters and model.
	samplerSeed = 42
	topPMinKeep = 1
	grammarRoot = "root"
)

// Params are the mutable generation settings plus the fixed session shape.
type Params struct {
	Temperature   float32
	TopP          float32
	MaxTokens     int
	ContextWindow int
	BatchSize     int
	GPULayers     int
}

// DefaultParams returns the on-device defaults.
func DefaultParams() Params {
	return Params{
		Temperature:   0.3,
		TopP:          0.9,
		MaxTokens:     256,
		ContextWindow: 4096,
		BatchSize:     512,
		GPULayers:     99,
	}
}

// Engine is the single mutable model state. The zero value is not usable;
// construct with New.
type Engine struct {
	mu      sync.RWMutex
	backend llm.Backend
	log     logger.Logger

	model        llm.Model
	session      llm.Session
	vocab        llm.Vocab
	sampler      llm.SamplerChain
	chatTemplate string
	grammarText  string

	temperature   float32
	topP          float32
	maxTokens     int
	contextWindow int
	batchSize     int
	gpuLayers     int
}

// New returns an engine bound to backend with no model loaded.
func New(backend llm.Backend, params Params, log logger.Logger) *Engine {
	if log == nil {
		log = logger.Default()
	}
	return &Engine{
		backend:       backend,
		log:           log,
		temperature:   params.Temperature,
		topP:          params.TopP,
		maxTokens:     params.MaxTokens,
		contextWindow: params.ContextWindow,
		batchSize:     params.BatchSize,
		gpuLayers:     params.GPULayers,
	}
}

// Initialize resets any existing state and loads the model at modelPath.
// An unreadable grammarPath is logged and skipped; a missing model or
// vocabulary is fatal and leaves the engine fully reset. Acquisition order
// is model, vocabulary, grammar text, chat template, session, initial
// sampler chain; any failure unwinds the handles acquired so far.
func (e *Engine) Initialize(modelPath, grammarPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.releaseLocked()

	e.log.Info("initializing model", "path", modelPath)

	model, err := e.backend.Load(modelPath, llm.ModelParams{GPULayers: e.gpuLayers})
	if err != nil {
		e.log.Error("failed to load model", "path", modelPath, "err", err)
		return err
	}

	vocab := model.Vocab()
	if vocab == nil {
		e.log.Error("failed to get vocab from model", "path", modelPath)
		model.Free()
		return ErrModelNotLoaded
	}

	if grammarPath != "" {
		e.grammarText = ReadGrammar(grammarPath, e.log)
	}

	if tmpl, ok := model.ChatTemplate(); ok {
		e.chatTemplate = tmpl
		e.log.Info("using model chat template")
	} else {
		e.log.Info("model has no chat template, will use fallback")
	}

	session, err := model.NewSession(llm.SessionParams{
		ContextWindow: e.contextWindow,
		BatchSize:     e.batchSize,
	})
	if err != nil {
		e.log.Error("failed to create session", "err", err)
		model.Free()
		e.chatTemplate = ""
		e.grammarText = ""
		return err
	}

	e.model = model
	e.vocab = vocab
	e.session = session
	e.sampler = e.buildChainLocked(e.grammarText)

	e.log.Info("model initialization complete")
	return nil
}

// Release frees all owned handles in reverse-acquisition order and clears
// the text fields. It is idempotent.
func (e *Engine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.releaseLocked()
}

func (e *Engine) releaseLocked() {
	if e.sampler != nil {
		e.sampler.Free()
		e.sampler = nil
	}
	if e.session != nil {
		e.session.Free()
		e.session = nil
	}
	if e.model != nil {
		e.model.Free()
		e.model = nil
	}
	// The vocabulary is a view into the model and is never freed directly.
	e.vocab = nil
	e.chatTemplate = ""
	e.grammarText = ""
}

// Ready reports whether a model, session and vocabulary are all present.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.readyLocked()
}

func (e *Engine) readyLocked() bool {
	return e.model != nil && e.session != nil && e.vocab != nil
}

// Info is a read-only snapshot of the loaded model.
type Info struct {
	Loaded        bool `json:"loaded"`
	VocabSize     int  `json:"n_vocab,omitempty"`
	TrainedCtx    int  `json:"n_ctx_train,omitempty"`
	ContextWindow int  `json:"n_ctx,omitempty"`
}

// Info snapshots the model metadata. Safe to call concurrently with
// inference.
func (e *Engine) Info() Info {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.model == nil || e.vocab == nil {
		return Info{}
	}
	return Info{
		Loaded:        true,
		VocabSize:     e.vocab.NumTokens(),
		TrainedCtx:    e.model.TrainedContextWindow(),
		ContextWindow: e.contextWindow,
	}
}

// SetParams updates the sampling parameters and generation cap. No range
// validation happens here; downstream stages tolerate degenerate values.
func (e *Engine) SetParams(temperature, topP float32, maxTokens int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.temperature = temperature
	e.topP = topP
	e.maxTokens = maxTokens
	e.log.Info("inference params updated",
		"temperature", temperature, "top_p", topP, "max_tokens", maxTokens)
}

// InferOptions select between the boundary entry points.
type InferOptions struct {
	// RawSystemPrompt uses the sanitized screen context directly as the
	// system prompt instead of wrapping it in the action-schema block.
	RawSystemPrompt bool
	// GrammarOverride replaces the loaded grammar for this call. Empty
	// string forces unconstrained sampling; nil keeps the loaded grammar.
	GrammarOverride *string
}

// Infer runs the full pipeline for one request and blocks the caller for
// its whole duration. There is no cancellation: a started generation runs
// to end-of-generation, the token budget, or a decode failure.
func (e *Engine) Infer(userQuery, screenContext string, opts InferOptions) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.readyLocked() {
		e.log.Error("model not ready for inference")
		return nil, ErrModelNotLoaded
	}

	if sanitize.ContainsInjection(userQuery) {
		e.log.Warn("injection attempt blocked")
		return nil, ErrInjectionBlocked
	}

	safeQuery := sanitize.Clean(userQuery, maxQueryLen)
	safeScreen := sanitize.Clean(screenContext, maxScreenLen)

	systemPrompt := safeScreen
	if !opts.RawSystemPrompt {
		systemPrompt = prompt.BuildSystemPrompt(safeScreen)
	}

	text, templated := prompt.ApplyChatTemplate(e.backend, e.chatTemplate, systemPrompt, safeQuery)
	if !templated {
		e.log.Warn("chat template failed, falling back to simple format")
	}

	grammar := e.grammarText
	if opts.GrammarOverride != nil {
		grammar = *opts.GrammarOverride
	}

	return e.generateLocked(text, grammar)
}

// ReadGrammar loads a grammar definition from path. A missing or unreadable
// file is a soft failure: a warning is logged and the empty string (no
// constraint) is returned.
func ReadGrammar(path string, log logger.Logger) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("grammar file not found, proceeding unconstrained", "path", path, "err", err)
		return ""
	}
	log.Info("grammar loaded", "path", path, "bytes", len(data))
	return string(data)
}
