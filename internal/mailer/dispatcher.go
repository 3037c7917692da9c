// Package mailer renders notification emails and delivers them through
// an ordered list of providers with per-provider retries.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finwell/finwell/internal/i18n"
	"github.com/finwell/finwell/internal/model"
)

// MaxAttempts is how many times one provider is tried before falling
// back to the next.
const MaxAttempts = 3

// Message is a fully rendered email ready for a provider.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Provider delivers one rendered message.
type Provider interface {
	Name() string
	Configured() bool
	Send(ctx context.Context, msg *Message) error
}

// DeliveryRecorder logs delivery outcomes. Implementations must not
// fail the send path.
type DeliveryRecorder interface {
	Record(ctx context.Context, entry *DeliveryEntry)
}

// DeliveryEntry is one delivery outcome for the audit log.
type DeliveryEntry struct {
	To          string
	TemplateKey model.TemplateKey
	Provider    string
	Attempts    int
	Succeeded   bool
	Error       string
	SentAt      time.Time
}

// Dispatcher fans a notification request out to providers in priority
// order until one accepts it.
type Dispatcher struct {
	providers []Provider
	renderer  *Renderer
	recorder  DeliveryRecorder
	logger    *slog.Logger

	// backoff returns how long to wait after a failed attempt.
	// Overridable in tests.
	backoff func(attempt int) time.Duration
}

// NewDispatcher creates a dispatcher. Providers are tried in the order
// given; recorder may be nil.
func NewDispatcher(renderer *Renderer, logger *slog.Logger, recorder DeliveryRecorder, providers ...Provider) *Dispatcher {
	return &Dispatcher{
		providers: providers,
		renderer:  renderer,
		recorder:  recorder,
		logger:    logger.With("component", "mailer.dispatcher"),
		backoff:   defaultBackoff,
	}
}

// defaultBackoff doubles per attempt: 2s after the first failure, 4s
// after the second.
func defaultBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// Send renders req against each provider's template and tries the
// providers in order, up to MaxAttempts each. It returns nil on the
// first accepted delivery and ErrDeliveryFailed once every provider
// is exhausted.
func (d *Dispatcher) Send(ctx context.Context, req *model.NotificationRequest) error {
	lang := i18n.Normalize(req.Lang)

	subject := req.Subject
	if subject == "" {
		s, err := d.renderer.Subject(req.TemplateKey, lang)
		if err != nil {
			return err
		}
		subject = s
	}

	var lastErr error
	for _, provider := range d.providers {
		if !provider.Configured() {
			d.logger.Debug("skipping unconfigured provider", "provider", provider.Name())
			continue
		}

		html, err := d.renderer.Render(req.TemplateKey, provider.Name(), lang, req.Data)
		if err != nil {
			return err
		}
		msg := &Message{To: req.To, Subject: subject, HTML: html}

		attempts, err := d.sendWithRetry(ctx, provider, msg)
		d.record(ctx, req, provider.Name(), attempts, err)
		if err == nil {
			d.logger.Info("email sent",
				"to", req.To,
				"template", req.TemplateKey,
				"provider", provider.Name(),
				"attempts", attempts,
			)
			return nil
		}

		lastErr = err
		d.logger.Warn("provider failed, falling back",
			"to", req.To,
			"template", req.TemplateKey,
			"provider", provider.Name(),
			"attempts", attempts,
			"error", err,
		)
	}

	if lastErr == nil {
		return fmt.Errorf("%w: no provider configured", ErrDeliveryFailed)
	}
	return fmt.Errorf("%w: %w", ErrDeliveryFailed, lastErr)
}

// sendWithRetry tries one provider up to MaxAttempts. Non-retriable
// failures abort immediately.
func (d *Dispatcher) sendWithRetry(ctx context.Context, provider Provider, msg *Message) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		lastErr = provider.Send(ctx, msg)
		if lastErr == nil {
			return attempt, nil
		}
		if !IsRetriable(lastErr) {
			return attempt, lastErr
		}
		if attempt == MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return attempt, ctx.Err()
		case <-time.After(d.backoff(attempt)):
		}
	}
	return MaxAttempts, lastErr
}

func (d *Dispatcher) record(ctx context.Context, req *model.NotificationRequest, provider string, attempts int, sendErr error) {
	if d.recorder == nil {
		return
	}
	entry := &DeliveryEntry{
		To:          req.To,
		TemplateKey: req.TemplateKey,
		Provider:    provider,
		Attempts:    attempts,
		Succeeded:   sendErr == nil,
		SentAt:      time.Now(),
	}
	if sendErr != nil {
		entry.Error = sendErr.Error()
	}
	d.recorder.Record(ctx, entry)
}
