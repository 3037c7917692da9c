package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClientTimeout is the total request timeout for the transactional
// email API.
const APIClientTimeout = 10 * time.Second

// APIProvider delivers mail through the MailerSend transactional HTTP
// API. It is the primary provider.
type APIProvider struct {
	url       string
	token     string
	fromEmail string
	fromName  string
	client    *http.Client
}

// NewAPIProvider creates the HTTP API provider. URL and token come
// from configuration.
func NewAPIProvider(url, token, fromEmail, fromName string) *APIProvider {
	return &APIProvider{
		url:       url,
		token:     token,
		fromEmail: fromEmail,
		fromName:  fromName,
		client:    &http.Client{Timeout: APIClientTimeout},
	}
}

// Name identifies this provider in logs and template selection.
func (p *APIProvider) Name() string { return "mailersend" }

// Configured reports whether the provider has credentials to attempt
// delivery.
func (p *APIProvider) Configured() bool {
	return p.token != "" && p.fromEmail != ""
}

type apiAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type apiPayload struct {
	From    apiAddress   `json:"from"`
	To      []apiAddress `json:"to"`
	Subject string       `json:"subject"`
	HTML    string       `json:"html"`
}

// Send posts the message to the API. Network failures, rate limits
// and upstream 5xx responses are retriable; other API rejections are
// permanent.
func (p *APIProvider) Send(ctx context.Context, msg *Message) error {
	if !p.Configured() {
		return fmt.Errorf("%w: mailersend api token or from email not set", ErrProviderUnconfigured)
	}

	body, err := json.Marshal(apiPayload{
		From:    apiAddress{Email: p.fromEmail, Name: p.fromName},
		To:      []apiAddress{{Email: msg.To}},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("encode api payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build api request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Retriable(fmt.Errorf("post to email api: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	apiErr := fmt.Errorf("email api error: %d %s", resp.StatusCode, string(detail))

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return Retriable(apiErr)
	}
	return apiErr
}
