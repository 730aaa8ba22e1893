package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

type BrevoConfig struct {
	APIKey      string
	SenderEmail string
	SenderName  string
	Endpoint    string
}

// BrevoNotifier sends transactional email through the Brevo HTTP API.
type BrevoNotifier struct {
	cfg    BrevoConfig
	client *http.Client
	log    *zap.Logger
}

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

func NewBrevoNotifier(cfg BrevoConfig, log *zap.Logger) (*BrevoNotifier, error) {
	if cfg.APIKey == "" || cfg.SenderEmail == "" || cfg.SenderName == "" {
		return nil, fmt.Errorf("brevo: api key, sender email and sender name are required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = brevoEndpoint
	}
	return &BrevoNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}, nil
}

func (s *BrevoNotifier) Notify(ctx context.Context, to Recipient, subject, body string) error {
	if to.Email == "" || !strings.Contains(to.Email, "@") {
		return fmt.Errorf("invalid recipient email: %s", to.Email)
	}

	recipientName := to.Name
	if recipientName == "" {
		recipientName = to.Email[:strings.Index(to.Email, "@")]
	}

	payload := brevoPayload{
		Sender:      map[string]string{"name": s.cfg.SenderName, "email": s.cfg.SenderEmail},
		To:          []map[string]string{{"email": to.Email, "name": recipientName}},
		Subject:     subject,
		HTMLContent: "<p>" + html.EscapeString(body) + "</p>",
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", s.cfg.APIKey)
	req.Header.Set("content-type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("brevo returned %d: %s", resp.StatusCode, string(respBody))
	}

	s.log.Debug("email sent", zap.String("to", to.Email), zap.String("subject", subject))
	return nil
}
