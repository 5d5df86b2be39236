package prompt

import (
	"strings"
	"testing"

	"github.com/mazzlabs/sentinel/internal/llm"
)

// recordingRenderer scripts RenderTemplate and records how it was called.
type recordingRenderer struct {
	calls    []int // dst length per call
	sizeRet  int   // first-pass return
	fillRet  int   // second-pass return; 0 means "echo sizeRet"
	rendered string
	padNUL   int // trailing NUL bytes written after rendered
}

func (r *recordingRenderer) RenderTemplate(tmpl string, msgs []llm.ChatMessage, addAssistant bool, dst []byte) int {
	r.calls = append(r.calls, len(dst))
	if len(dst) == 0 {
		return r.sizeRet
	}
	copy(dst, r.rendered)
	for i := 0; i < r.padNUL && len(r.rendered)+i < len(dst); i++ {
		dst[len(r.rendered)+i] = 0
	}
	if r.fillRet != 0 {
		return r.fillRet
	}
	return r.sizeRet
}

func TestBuildSystemPrompt(t *testing.T) {
	t.Parallel()

	got := BuildSystemPrompt("Button: send_btn")
	if !strings.Contains(got, "Current screen context:\nButton: send_btn") {
		t.Fatalf("screen context not embedded:\n%s", got)
	}
	if !strings.Contains(got, `"action":"CLICK"`) {
		t.Fatalf("action schema missing:\n%s", got)
	}
	if !strings.HasSuffix(got, "No markdown, no explanation outside JSON.") {
		t.Fatalf("instruction footer missing:\n%s", got)
	}
}

func TestApplyChatTemplateTwoPass(t *testing.T) {
	t.Parallel()

	r := &recordingRenderer{sizeRet: 11, rendered: "hello world"}
	got, ok := ApplyChatTemplate(r, "tmpl", "sys", "user")
	if !ok {
		t.Fatal("expected template path")
	}
	if got != "hello world" {
		t.Fatalf("got %q", got)
	}
	if len(r.calls) != 2 {
		t.Fatalf("expected 2 render calls, got %d", len(r.calls))
	}
	if r.calls[0] != 0 {
		t.Fatalf("sizing pass got a %d-byte buffer", r.calls[0])
	}
	if r.calls[1] != 12 {
		t.Fatalf("fill pass buffer is %d bytes, want size+1", r.calls[1])
	}
}

func TestApplyChatTemplateTrimsAtNUL(t *testing.T) {
	t.Parallel()

	// The sizing pass overestimates; unwritten buffer bytes stay NUL and
	// must not leak into the result.
	r := &recordingRenderer{sizeRet: 20, fillRet: 20, rendered: "short", padNUL: 16}
	got, ok := ApplyChatTemplate(r, "tmpl", "sys", "user")
	if !ok {
		t.Fatal("expected template path")
	}
	if got != "short" {
		t.Fatalf("got %q, want %q", got, "short")
	}
}

func TestApplyChatTemplateFallback(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		system string
		user   string
		want   string
	}{
		{name: "system and user", system: "sys prompt", user: "do it", want: "sys prompt\n\ndo it"},
		{name: "user only", system: "", user: "do it", want: "do it"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := &recordingRenderer{sizeRet: 0}
			got, ok := ApplyChatTemplate(r, "", tc.system, tc.user)
			if ok {
				t.Fatal("expected fallback path")
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestApplyChatTemplateFallbackOnFailedFill(t *testing.T) {
	t.Parallel()

	// Sizing succeeds but the fill pass reports failure.
	r := &recordingRenderer{sizeRet: 10, fillRet: -1, rendered: "junk"}
	got, ok := ApplyChatTemplate(r, "tmpl", "sys", "user")
	if ok {
		t.Fatal("expected fallback path")
	}
	if got != "sys\n\nuser" {
		t.Fatalf("got %q", got)
	}
}

func TestApplyChatTemplateMessageRoles(t *testing.T) {
	t.Parallel()

	var seen []llm.ChatMessage
	r := &funcRenderer{fn: func(tmpl string, msgs []llm.ChatMessage, addAssistant bool, dst []byte) int {
		seen = append([]llm.ChatMessage(nil), msgs...)
		if !addAssistant {
			t.Error("addAssistant should be set")
		}
		return 0
	}}

	ApplyChatTemplate(r, "tmpl", "sys", "hi")
	if len(seen) != 2 || seen[0].Role != "system" || seen[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", seen)
	}

	seen = nil
	ApplyChatTemplate(r, "tmpl", "", "hi")
	if len(seen) != 1 || seen[0].Role != "user" {
		t.Fatalf("empty system prompt should drop the system message: %+v", seen)
	}
}

type funcRenderer struct {
	fn func(string, []llm.ChatMessage, bool, []byte) int
}

func (f *funcRenderer) RenderTemplate(tmpl string, msgs []llm.ChatMessage, addAssistant bool, dst []byte) int {
	return f.fn(tmpl, msgs, addAssistant, dst)
}
