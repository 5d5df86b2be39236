// Package mock is an in-memory llm.Backend with fully scripted behaviour.
//
// Tokens are UTF-8 bytes (ids 0..255) plus an end-of-generation marker and
// a leading marker token. The "model" replays a configured reply string one
// byte per decode step and then emits end-of-generation. It backs the test
// suite and the default CLI backend, so the whole pipeline can be exercised
// without model weights.
package mock

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/mazzlabs/sentinel/internal/llm"
)

const (
	eogToken     llm.Token = 256
	leadingToken llm.Token = 257
	numTokens              = 258
)

// DefaultReply is what freshly registered CLI backends generate.
const DefaultReply = `{"action":"NONE","reasoning":"mock backend reply"}`

func init() {
	llm.Register("mock", func() llm.Backend {
		return &Backend{Reply: DefaultReply, RequireFile: true}
	})
}

// Backend implements llm.Backend. The exported fields are knobs; set them
// before handing the backend to an engine.
type Backend struct {
	// Reply is the byte stream generated for every call.
	Reply string
	// ChatTemplate, when non-empty, is reported by loaded models.
	ChatTemplate string
	// TrainedCtx is the reported trained context window (default 8192).
	TrainedCtx int
	// RequireFile makes Load insist that the model path exists on disk.
	RequireFile bool
	// PieceRepeat makes TokenPiece emit each byte that many times (default
	// 1), so output-buffer limits can be hit with few tokens.
	PieceRepeat int

	// Failure injection.
	LoadErr       error // Load fails outright
	SessionErr    error // NewSession fails
	NilVocab      bool  // loaded models report no vocabulary
	TokenizeEmpty bool  // tokenizer reports outright failure
	// TokenizeSlack inflates the buffer size the tokenizer demands before
	// it will run, forcing callers through the reallocate-and-retry path.
	TokenizeSlack int
	GrammarErr    bool  // grammar stage construction fails
	PrimeErr      bool  // first decode after ClearMemory fails
	// DecodeErrAfter fails the Nth post-prime decode call (1-based; 0 never).
	DecodeErrAfter int
	// SampleErrAfter fails the Nth Sample call on a chain (1-based; 0 never).
	SampleErrAfter int

	mu           sync.Mutex
	lastStages   []string
	chainsMade   int
	chainsFreed  int
	modelsFreed  int
	sessionsMade int
	decodeCalls  int
	closed       bool
}

// ChainsLive reports sampler chains built but not yet freed.
func (b *Backend) ChainsLive() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chainsMade - b.chainsFreed
}

// ChainsMade reports the total number of sampler chains built.
func (b *Backend) ChainsMade() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chainsMade
}

// DecodeCalls reports the total number of Decode invocations across all
// sessions.
func (b *Backend) DecodeCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.decodeCalls
}

// LastChainStages reports the stage kinds of the most recently built chain,
// in composition order.
func (b *Backend) LastChainStages() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lastStages...)
}

// ModelsFreed reports how many model handles have been released.
func (b *Backend) ModelsFreed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modelsFreed
}

func (b *Backend) Load(path string, params llm.ModelParams) (llm.Model, error) {
	if b.LoadErr != nil {
		return nil, b.LoadErr
	}
	if b.RequireFile {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("mock: load %s: %w", path, err)
		}
	}
	return &model{b: b}, nil
}

func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

type model struct {
	b *Backend
}

func (m *model) Vocab() llm.Vocab {
	if m.b.NilVocab {
		return nil
	}
	return &vocab{b: m.b}
}

func (m *model) ChatTemplate() (string, bool) {
	return m.b.ChatTemplate, m.b.ChatTemplate != ""
}

func (m *model) TrainedContextWindow() int {
	if m.b.TrainedCtx > 0 {
		return m.b.TrainedCtx
	}
	return 8192
}

func (m *model) NewSession(params llm.SessionParams) (llm.Session, error) {
	if m.b.SessionErr != nil {
		return nil, m.b.SessionErr
	}
	m.b.mu.Lock()
	m.b.sessionsMade++
	m.b.mu.Unlock()
	return &session{b: m.b, params: params, cleared: true}, nil
}

func (m *model) Free() {
	m.b.mu.Lock()
	m.b.modelsFreed++
	m.b.mu.Unlock()
}

type vocab struct {
	b *Backend
}

func (v *vocab) NumTokens() int { return numTokens }

func (v *vocab) Tokenize(text string, dst []llm.Token, addLeading bool) int {
	if v.b.TokenizeEmpty {
		return 0
	}
	needed := len(text)
	if addLeading {
		needed++
	}
	if len(dst) < needed+v.b.TokenizeSlack {
		return -(needed + v.b.TokenizeSlack)
	}
	i := 0
	if addLeading {
		dst[0] = leadingToken
		i = 1
	}
	for _, c := range []byte(text) {
		dst[i] = llm.Token(c)
		i++
	}
	return needed
}

func (v *vocab) IsEOG(t llm.Token) bool { return t == eogToken }

func (v *vocab) TokenPiece(t llm.Token, buf []byte) int {
	if t < 0 || t > 255 || len(buf) == 0 {
		return 0
	}
	n := v.b.PieceRepeat
	if n < 1 {
		n = 1
	}
	if n > len(buf) {
		n = len(buf)
	}
	for i := 0; i < n; i++ {
		buf[i] = byte(t)
	}
	return n
}

type session struct {
	b       *Backend
	params  llm.SessionParams
	tokens  int
	steps   int
	cleared bool
}

func (s *session) ContextWindow() int { return s.params.ContextWindow }

func (s *session) ClearMemory() {
	s.tokens = 0
	s.steps = 0
	s.cleared = true
}

func (s *session) Decode(tokens []llm.Token) error {
	s.b.mu.Lock()
	s.b.decodeCalls++
	s.b.mu.Unlock()

	if s.cleared {
		s.cleared = false
		if s.b.PrimeErr {
			return errors.New("mock: prime decode failed")
		}
	} else {
		s.steps++
		if s.b.DecodeErrAfter > 0 && s.steps >= s.b.DecodeErrAfter {
			return errors.New("mock: decode failed")
		}
	}
	s.tokens += len(tokens)
	return nil
}

func (s *session) Free() {}

type stage struct {
	llm.StageMarker
	kind    string
	grammar string
}

func (b *Backend) TempStage(temperature float32) llm.Stage {
	return stage{kind: "temp"}
}

func (b *Backend) TopPStage(p float32, minKeep int) llm.Stage {
	return stage{kind: "top_p"}
}

func (b *Backend) GrammarStage(v llm.Vocab, grammar, root string) (llm.Stage, error) {
	if b.GrammarErr {
		return nil, errors.New("mock: grammar construction failed")
	}
	if v == nil {
		return nil, errors.New("mock: grammar requires a vocabulary")
	}
	return stage{kind: "grammar", grammar: grammar}, nil
}

func (b *Backend) DistStage(seed uint32) llm.Stage {
	return stage{kind: "dist"}
}

func (b *Backend) NewChain(stages ...llm.Stage) llm.SamplerChain {
	kinds := make([]string, 0, len(stages))
	for _, s := range stages {
		if st, ok := s.(stage); ok {
			kinds = append(kinds, st.kind)
		}
	}
	b.mu.Lock()
	b.chainsMade++
	b.lastStages = kinds
	b.mu.Unlock()
	return &chain{b: b, reply: []byte(b.Reply), stages: stages}
}

type chain struct {
	b       *Backend
	reply   []byte
	stages  []llm.Stage
	pos     int
	samples int
	freed   bool
}

func (c *chain) Sample(s llm.Session) (llm.Token, error) {
	c.samples++
	if c.b.SampleErrAfter > 0 && c.samples >= c.b.SampleErrAfter {
		return 0, errors.New("mock: sample failed")
	}
	if c.pos >= len(c.reply) {
		return eogToken, nil
	}
	return llm.Token(c.reply[c.pos]), nil
}

func (c *chain) Accept(t llm.Token) error {
	if t >= 0 && t <= 255 {
		c.pos++
	}
	return nil
}

func (c *chain) Free() {
	if c.freed {
		return
	}
	c.freed = true
	c.b.mu.Lock()
	c.b.chainsFreed++
	c.b.mu.Unlock()
}

// RenderTemplate renders a fixed tagged transcript format for any non-empty
// template and reports failure for an empty one, so both the two-pass path
// and the concatenation fallback are reachable.
func (b *Backend) RenderTemplate(tmpl string, msgs []llm.ChatMessage, addAssistant bool, dst []byte) int {
	if tmpl == "" {
		return 0
	}
	var out []byte
	for _, m := range msgs {
		out = append(out, "<|"+m.Role+"|>\n"...)
		out = append(out, m.Content...)
		out = append(out, "</|"+m.Role+"|>\n"...)
	}
	if addAssistant {
		out = append(out, "<|assistant|>\n"...)
	}
	if len(dst) < len(out) {
		return len(out)
	}
	copy(dst, out)
	return len(out)
}
