// Package tokens estimates prompt sizes before they are sent to the generator.
//
// Gemini does not publish an offline tokenizer, so cl100k_base is used as a
// close approximation. When the codec cannot be loaded the counter degrades
// to a characters-per-token estimate.
package tokens

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Counter counts tokens in prompt text. It is safe for concurrent use.
type Counter struct {
	// CharsPerToken is used when no codec is available (default: 4).
	CharsPerToken float64

	once  sync.Once
	codec tokenizer.Codec
}

// NewCounter creates a counter backed by the cl100k_base encoding.
func NewCounter() *Counter {
	return &Counter{CharsPerToken: 4.0}
}

func (c *Counter) load() tokenizer.Codec {
	c.once.Do(func() {
		codec, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err == nil {
			c.codec = codec
		}
	})
	return c.codec
}

// Count returns the token count of text and whether it is an estimate.
func (c *Counter) Count(text string) (n int, estimated bool) {
	if text == "" {
		return 0, false
	}
	if codec := c.load(); codec != nil {
		ids, _, err := codec.Encode(text)
		if err == nil {
			return len(ids), false
		}
	}
	return c.estimate(text), true
}

func (c *Counter) estimate(text string) int {
	cpt := c.CharsPerToken
	if cpt <= 0 {
		cpt = 4.0
	}
	n := int(float64(len(text)) / cpt)
	if n == 0 {
		n = 1
	}
	return n
}
