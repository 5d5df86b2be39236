// Package prompt assembles the structured prompt handed to the model: a
// fixed action-schema instruction block, the sanitized screen context, and
// the user query, rendered through the model's chat template when one is
// available.
package prompt

import (
	"bytes"

	"github.com/mazzlabs/sentinel/internal/llm"
)

const systemHeader = `You are an Android accessibility agent. Analyze the screen and respond with a JSON action.

Available actions:
- CLICK: {"action":"CLICK","target":"element_id","reasoning":"why"}
- TYPE: {"action":"TYPE","target":"element_id","text":"what to type","reasoning":"why"}
- SCROLL: {"action":"SCROLL","direction":"up|down|left|right","reasoning":"why"}
- BACK: {"action":"BACK","reasoning":"why"}
- NONE: {"action":"NONE","reasoning":"why nothing needed"}

Current screen context:
`

const systemFooter = `

Respond ONLY with valid JSON. No markdown, no explanation outside JSON.`

// BuildSystemPrompt wraps the (already sanitized, length-capped) screen
// context in the action-schema instruction block.
func BuildSystemPrompt(screenContext string) string {
	return systemHeader + screenContext + systemFooter
}

// Renderer is the chat-template entry point of the inference library. See
// llm.Backend.RenderTemplate for the two-pass sizing contract.
type Renderer interface {
	RenderTemplate(tmpl string, msgs []llm.ChatMessage, addAssistant bool, dst []byte) int
}

// ApplyChatTemplate renders a (system, user) transcript through tmpl. The
// renderer is called twice: once with an empty buffer to learn the required
// size, then with a buffer of that size. The sizing pass may overestimate,
// so the rendered bytes are trimmed at the first NUL.
//
// When rendering reports a non-positive size the deterministic fallback is
// used instead: systemPrompt + "\n\n" + userMessage, or just userMessage
// when systemPrompt is empty. The second return value reports whether the
// template path was taken.
func ApplyChatTemplate(r Renderer, tmpl, systemPrompt, userMessage string) (string, bool) {
	msgs := make([]llm.ChatMessage, 0, 2)
	if systemPrompt != "" {
		msgs = append(msgs, llm.ChatMessage{Role: "system", Content: systemPrompt})
	}
	msgs = append(msgs, llm.ChatMessage{Role: "user", Content: userMessage})

	size := r.RenderTemplate(tmpl, msgs, true, nil)
	if size <= 0 {
		return fallback(systemPrompt, userMessage), false
	}

	buf := make([]byte, size+1)
	if n := r.RenderTemplate(tmpl, msgs, true, buf); n <= 0 {
		return fallback(systemPrompt, userMessage), false
	}
	out := buf
	if i := bytes.IndexByte(out, 0); i >= 0 {
		out = out[:i]
	}
	return string(out), true
}

func fallback(systemPrompt, userMessage string) string {
	if systemPrompt == "" {
		return userMessage
	}
	return systemPrompt + "\n\n" + userMessage
}
