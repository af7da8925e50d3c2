// Package graph implements a backend that delivers emails through the
// Microsoft Graph sendMail endpoint, authenticated with OAuth2 client credentials.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/dmitrymomot/mailroom/pkg/backend"
)

// Name is the registry name of the Graph backend.
const Name = "graph"

const (
	defaultScope   = "https://graph.microsoft.com/.default"
	defaultTimeout = 30 * time.Second
)

// Config holds the Azure AD application used to send mail on behalf of Sender.
type Config struct {
	TenantID     string `yaml:"tenant_id" env:"GRAPH_TENANT_ID"`
	ClientID     string `yaml:"client_id" env:"GRAPH_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GRAPH_CLIENT_SECRET"`
	Sender       string `yaml:"sender" env:"GRAPH_SENDER"`

	// Overrides for non-public clouds and tests.
	TokenURL string `yaml:"token_url" env:"GRAPH_TOKEN_URL"`
	GraphURL string `yaml:"graph_url" env:"GRAPH_URL"`
}

// Transport sends messages with the Graph API.
type Transport struct {
	client  *http.Client
	sendURL string
}

// New creates a Graph transport. Tokens are fetched and refreshed by the
// OAuth2 client credentials flow.
func New(cfg Config) *Transport {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", url.PathEscape(cfg.TenantID))
	}
	graphURL := cfg.GraphURL
	if graphURL == "" {
		graphURL = "https://graph.microsoft.com/v1.0"
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{defaultScope},
	}

	base := &http.Client{Timeout: defaultTimeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	client := cc.Client(ctx)
	client.Timeout = defaultTimeout

	return &Transport{
		client:  client,
		sendURL: fmt.Sprintf("%s/users/%s/sendMail", graphURL, url.PathEscape(cfg.Sender)),
	}
}

// Send implements backend.Transport. It returns *backend.Response.
// Client errors other than 401 and 429 are definitive rejections; everything
// else that is not 202 is reported as a transport error.
func (t *Transport) Send(ctx context.Context, msg *backend.Message) (any, error) {
	body, err := json.Marshal(buildSendMailRequest(msg))
	if err != nil {
		return nil, fmt.Errorf("graph: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.sendURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("graph: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusOK {
		return &backend.Response{ID: msg.MessageID, Status: backend.StatusQueued}, nil
	}

	reason := errorMessage(resp)
	if permanent(resp.StatusCode) {
		return &backend.Response{Status: backend.StatusRejected, RejectReason: reason}, nil
	}
	return nil, &Error{StatusCode: resp.StatusCode, Message: reason, RetryAfter: resp.Header.Get("Retry-After")}
}

// Error is a transient Graph API failure.
type Error struct {
	Message    string
	RetryAfter string
	StatusCode int
}

func (e *Error) Error() string {
	return fmt.Sprintf("graph: api error (HTTP %d): %s", e.StatusCode, e.Message)
}

func permanent(status int) bool {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusTooManyRequests:
		return false
	case status >= 400 && status < 500:
		return true
	default:
		return false
	}
}

func errorMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var graphErr graphErrorResponse
	if err := json.Unmarshal(body, &graphErr); err == nil && graphErr.Error.Message != "" {
		return graphErr.Error.Message
	}
	if len(body) == 0 {
		return http.StatusText(resp.StatusCode)
	}
	return string(body)
}
