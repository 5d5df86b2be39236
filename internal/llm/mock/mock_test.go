package mock

import (
	"testing"

	"github.com/mazzlabs/sentinel/internal/llm"
)

// Stages declared outside package llm satisfy llm.Stage through the
// embedded marker.
var _ llm.Stage = stage{}

func TestStagesSatisfyInterface(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	m, err := b.Load("x", llm.ModelParams{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	gs, err := b.GrammarStage(m.Vocab(), `root ::= "x"`, "root")
	if err != nil {
		t.Fatalf("GrammarStage: %v", err)
	}
	for _, s := range []llm.Stage{b.TempStage(0.3), b.TopPStage(0.9, 1), gs, b.DistStage(42)} {
		if s == nil {
			t.Fatal("stage constructor returned nil")
		}
	}
}

func TestRegisteredWithRegistry(t *testing.T) {
	t.Parallel()

	be, err := llm.Open("mock")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := be.(*Backend); !ok {
		t.Fatalf("Open returned %T", be)
	}
}

func TestTokenizeSizingProtocol(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	m, err := b.Load("x", llm.ModelParams{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	v := m.Vocab()

	// Undersized buffer reports the required size as a negative count.
	small := make([]llm.Token, 2)
	n := v.Tokenize("hello", small, true)
	if n != -6 {
		t.Fatalf("Tokenize into small buffer = %d, want -6", n)
	}

	// Retry with the reported size succeeds.
	buf := make([]llm.Token, 6)
	n = v.Tokenize("hello", buf, true)
	if n != 6 {
		t.Fatalf("Tokenize = %d, want 6", n)
	}
	if buf[0] != leadingToken {
		t.Fatalf("buf[0] = %d, want leading token", buf[0])
	}
	if buf[1] != llm.Token('h') {
		t.Fatalf("buf[1] = %d, want 'h'", buf[1])
	}
}

func TestChainReplaysReplyThenEOG(t *testing.T) {
	t.Parallel()

	b := &Backend{Reply: "ab"}
	m, _ := b.Load("x", llm.ModelParams{})
	v := m.Vocab()
	c := b.NewChain(b.TempStage(0.3), b.DistStage(42))
	defer c.Free()

	for _, want := range []byte("ab") {
		tok, err := c.Sample(nil)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		if tok != llm.Token(want) {
			t.Fatalf("Sample = %d, want %d", tok, want)
		}
		if err := c.Accept(tok); err != nil {
			t.Fatalf("Accept: %v", err)
		}
	}

	tok, err := c.Sample(nil)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if !v.IsEOG(tok) {
		t.Fatalf("Sample after reply exhausted = %d, want end of generation", tok)
	}
}

func TestSampleWithoutAcceptRepeats(t *testing.T) {
	t.Parallel()

	b := &Backend{Reply: "xy"}
	c := b.NewChain()
	defer c.Free()

	first, _ := c.Sample(nil)
	second, _ := c.Sample(nil)
	if first != second {
		t.Fatalf("Sample advanced without Accept: %d then %d", first, second)
	}
}
