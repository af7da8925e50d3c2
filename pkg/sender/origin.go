package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultOriginTimeout = 5 * time.Second
	maxOriginBody        = 64 << 10
)

// Verdict is the answer of an entry's origin.
type Verdict struct {
	Allowed bool `json:"allowed"`
	Delete  bool `json:"delete"`
}

// OriginGate asks the check_url of an entry whether it may be sent.
type OriginGate struct {
	client *http.Client
}

// NewOriginGate creates a gate whose requests time out after timeout.
func NewOriginGate(timeout time.Duration) *OriginGate {
	if timeout <= 0 {
		timeout = defaultOriginTimeout
	}
	return &OriginGate{client: &http.Client{Timeout: timeout}}
}

// NewOriginGateWithClient creates a gate using client.
func NewOriginGateWithClient(client *http.Client) *OriginGate {
	return &OriginGate{client: client}
}

// Check sends GET url and decodes the verdict. Anything other than a 200
// with a JSON object is an ErrOriginCheck, and the zero Verdict.
func (g *OriginGate) Check(ctx context.Context, url string) (Verdict, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %w", ErrOriginCheck, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %w", ErrOriginCheck, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxOriginBody))
		return Verdict{}, fmt.Errorf("%w: status %d", ErrOriginCheck, resp.StatusCode)
	}

	var v Verdict
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxOriginBody)).Decode(&v); err != nil {
		return Verdict{}, fmt.Errorf("%w: malformed body: %w", ErrOriginCheck, err)
	}
	return v, nil
}
