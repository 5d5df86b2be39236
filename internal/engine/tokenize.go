package engine

import "github.com/mazzlabs/sentinel/internal/llm"

// tokenizeLocked converts text to token ids. The buffer is sized
// optimistically at len(text)+64; when the library reports a negative
// count, that is the required size and the call is retried exactly once.
// A nil result means the tokenizer failed outright.
func (e *Engine) tokenizeLocked(text string, addLeading bool) []llm.Token {
	buf := make([]llm.Token, len(text)+64)
	n := e.vocab.Tokenize(text, buf, addLeading)
	if n < 0 {
		buf = make([]llm.Token, -n)
		n = e.vocab.Tokenize(text, buf, addLeading)
	}
	if n <= 0 {
		return nil
	}
	return buf[:n]
}
