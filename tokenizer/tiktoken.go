package tokenizer

import (
	"github.com/pkoukk/tiktoken-go"
)

// Tiktoken counts tokens with a real BPE encoding. Used where exact counts
// matter, such as corpus metadata totals; chunk sizing stays on the
// deterministic Estimator.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

var _ Counter = (*Tiktoken)(nil)

// NewTiktoken resolves an encoding by model name, falling back to treating
// the name as an encoding name (e.g. "cl100k_base").
func NewTiktoken(name string) (*Tiktoken, error) {
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		enc, err = tiktoken.GetEncoding(name)
		if err != nil {
			return nil, err
		}
	}
	return &Tiktoken{enc: enc}, nil
}

// CountTokens returns the exact token count for the encoding.
func (t *Tiktoken) CountTokens(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}
