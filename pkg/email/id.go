package email

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/text/language"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a lexicographically sortable unique identifier.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// ParseLanguage validates a language code and returns its canonical form.
func ParseLanguage(code string) (string, error) {
	tag, err := language.Parse(code)
	if err != nil || code == "" {
		return "", fmt.Errorf("%w: invalid language %q", ErrValidation, code)
	}
	return tag.String(), nil
}
