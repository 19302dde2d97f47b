package cache

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// tokenCounter estimates token counts for tokens-saved accounting. The
// tiktoken encoding loads lazily; when it is unavailable (unknown encoding
// name, no cached BPE data) the counter falls back to a bytes/4 heuristic
// so accounting never blocks the request path.
type tokenCounter struct {
	encoding string

	once sync.Once
	tkm  *tiktoken.Tiktoken
}

func newTokenCounter(encoding string) *tokenCounter {
	return &tokenCounter{encoding: encoding}
}

func (t *tokenCounter) count(text string) int {
	if text == "" {
		return 0
	}
	if t.encoding != "" {
		t.once.Do(func() {
			tkm, err := tiktoken.GetEncoding(t.encoding)
			if err == nil {
				t.tkm = tkm
			}
		})
	}
	if t.tkm != nil {
		return len(t.tkm.Encode(text, nil, nil))
	}
	return (len(text) + 3) / 4
}
