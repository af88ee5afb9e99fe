// Package mailer delivers digest and confirmation emails through the
// SendGrid v3 REST API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.sendgrid.com"
	sendPath       = "/v3/mail/send"

	maxRetries = 2 // retries after the first attempt
)

// Client sends mail through SendGrid.
type Client struct {
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// New creates a SendGrid client sending from the given address.
func New(apiKey, from string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		apiKey:  apiKey,
		from:    from,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// NewWithBaseURL creates a client against a non-default API endpoint.
// Used by tests.
func NewWithBaseURL(apiKey, from, baseURL string, log *zap.Logger) *Client {
	c := New(apiKey, from, log)
	c.baseURL = baseURL
	return c
}

// SendGrid v3 mail/send payload.
type mailPayload struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
	Headers          map[string]string `json:"headers,omitempty"`
}

type personalization struct {
	To []address `json:"to"`
}

type address struct {
	Email string `json:"email"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// SendDigest sends a digest email. The unsubscribe URL also goes out as a
// List-Unsubscribe header so mail clients can offer their own button.
func (c *Client) SendDigest(ctx context.Context, to, subject, html, unsubscribeURL string) error {
	payload := mailPayload{
		Personalizations: []personalization{{To: []address{{Email: to}}}},
		From:             address{Email: c.from},
		Subject:          subject,
		Content:          []content{{Type: "text/html", Value: html}},
	}
	if unsubscribeURL != "" && unsubscribeURL != "#" {
		payload.Headers = map[string]string{
			"List-Unsubscribe": "<" + unsubscribeURL + ">",
		}
	}
	return c.send(ctx, to, payload)
}

// SendConfirmation sends the double opt-in email with the confirmation link.
func (c *Client) SendConfirmation(ctx context.Context, to, confirmURL string) error {
	html := fmt.Sprintf(confirmationHTML, confirmURL)
	payload := mailPayload{
		Personalizations: []personalization{{To: []address{{Email: to}}}},
		From:             address{Email: c.from},
		Subject:          "Confirm your Helsinki GSE seminar subscription",
		Content:          []content{{Type: "text/html", Value: html}},
	}
	return c.send(ctx, to, payload)
}

// send posts the payload, retrying transient failures with capped
// exponential backoff. A 4xx response is permanent; retrying it would only
// repeat the rejection.
func (c *Client) send(ctx context.Context, to string, payload mailPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding mail payload: %w", err)
	}

	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendPath, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending mail: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return nil
		}

		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err = fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
		if resp.StatusCode >= 400 && resp.StatusCode <= 499 {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		return err
	}

	c.log.Info("email sent", zap.String("to", to))
	return nil
}

const confirmationHTML = `<div style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; max-width: 480px; margin: 0 auto; padding: 32px;">
  <h2 style="color: #1a365d; margin-top: 0;">Confirm your subscription</h2>
  <p>You requested to receive weekly Helsinki GSE seminar updates.</p>
  <p>
    <a href="%s"
       style="display: inline-block; background: #1a365d; color: #ffffff;
              padding: 12px 24px; border-radius: 4px; text-decoration: none;
              font-weight: 500;">
      Confirm subscription
    </a>
  </p>
  <p style="color: #718096; font-size: 13px; margin-top: 24px;">
    If you didn't request this, you can safely ignore this email.
  </p>
</div>`
