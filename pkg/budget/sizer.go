// Package budget packs resolved candidates into a bounded selection. Sizes
// are measured through a Sizer so the same packer works whether the host
// budgets in characters or in model tokens.
package budget

import (
	"github.com/pkg/errors"
	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used by TokenSizer when none is given.
const DefaultEncoding = "cl100k_base"

// Sizer measures content and cuts it to a size. Truncate(text, n) must
// return content measuring at most n under the same Sizer.
type Sizer interface {
	Size(text string) int
	Truncate(text string, n int) string
}

// RuneSizer measures content in unicode characters.
type RuneSizer struct{}

// Size returns the number of runes in text.
func (RuneSizer) Size(text string) int {
	return len([]rune(text))
}

// Truncate returns the first n runes of text.
func (RuneSizer) Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if n >= len(runes) {
		return text
	}
	return string(runes[:n])
}

// TokenSizer measures content in BPE tokens so budgets line up with a model
// context window rather than raw characters.
type TokenSizer struct {
	enc *tiktoken.Tiktoken
}

// NewTokenSizer creates a token sizer for the named encoding, defaulting to
// cl100k_base.
func NewTokenSizer(encoding string) (*TokenSizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load encoding %q", encoding)
	}
	return &TokenSizer{enc: enc}, nil
}

// Size returns the number of tokens in text.
func (s *TokenSizer) Size(text string) int {
	return len(s.enc.Encode(text, nil, nil))
}

// Truncate returns the text decoded from the first n tokens.
func (s *TokenSizer) Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	tokens := s.enc.Encode(text, nil, nil)
	if n >= len(tokens) {
		return text
	}
	return s.enc.Decode(tokens[:n])
}
