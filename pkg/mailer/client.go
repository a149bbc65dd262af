package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/makao-africa/makao-backend/pkg/config"
	"github.com/makao-africa/makao-backend/pkg/logger"
)

const sendEndpoint = "https://api.sendgrid.com/v3/mail/send"

// Email is one outbound message. HTML may be empty for text-only mail.
type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender is the mail surface the notification consumer depends on.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// Client delivers mail through the SendGrid v3 REST API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	from       string
	logger     *logger.Logger
}

func NewClient(cfg config.SendgridConfig, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	from := strings.TrimSpace(cfg.DefaultFrom)
	if from == "" {
		return nil, errors.New("sendgrid from address is required")
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   sendEndpoint,
		apiKey:     apiKey,
		from:       from,
		logger:     logg,
	}, nil
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

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// Send delivers email, returning an error on any non-2xx response.
func (c *Client) Send(ctx context.Context, email Email) error {
	to := strings.TrimSpace(email.To)
	if to == "" {
		return errors.New("recipient address is required")
	}

	payload := sendRequest{
		Personalizations: []personalization{{To: []address{{Email: to}}}},
		From:             address{Email: c.from},
		Subject:          email.Subject,
	}
	if email.Text != "" {
		payload.Content = append(payload.Content, content{Type: "text/plain", Value: email.Text})
	}
	if email.HTML != "" {
		payload.Content = append(payload.Content, content{Type: "text/html", Value: email.HTML})
	}
	if len(payload.Content) == 0 {
		return errors.New("email body is required")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if c.logger != nil {
			c.logger.Warn(ctx, fmt.Sprintf("sendgrid send failed: %s", resp.Status))
		}
		return fmt.Errorf("sendgrid returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}
	return nil
}
