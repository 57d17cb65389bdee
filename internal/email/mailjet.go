package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/voicebrief/internal/config"
	"github.com/phrazzld/voicebrief/internal/platform/logger"
)

// mailjetProvider identifies Mailjet on persisted delivery rows.
const mailjetProvider = "mailjet"

// maxErrorBodyBytes caps how much of a provider error body is carried into
// error messages and stored on the request.
const maxErrorBodyBytes = 400

// MailjetSender sends summary emails through the Mailjet v3.1 Send API.
type MailjetSender struct {
	cfg        config.EmailConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewMailjetSender creates a MailjetSender from the given configuration.
// If log is nil, a default logger will be used.
func NewMailjetSender(cfg config.EmailConfig, log *slog.Logger) *MailjetSender {
	if log == nil {
		log = slog.Default()
	}

	return &MailjetSender{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: log.With(slog.String("component", "mailjet_sender")),
	}
}

// Ensure MailjetSender implements Sender
var _ Sender = (*MailjetSender)(nil)

// Provider implements Sender.Provider
func (s *MailjetSender) Provider() string {
	return mailjetProvider
}

type mailjetAddress struct {
	Email string `json:"Email"`
	Name  string `json:"Name,omitempty"`
}

type mailjetMessage struct {
	From     mailjetAddress   `json:"From"`
	To       []mailjetAddress `json:"To"`
	ReplyTo  *mailjetAddress  `json:"ReplyTo,omitempty"`
	Subject  string           `json:"Subject"`
	TextPart string           `json:"TextPart"`
	HTMLPart string           `json:"HTMLPart"`
	CustomID string           `json:"CustomID,omitempty"`
}

type mailjetPayload struct {
	Messages []mailjetMessage `json:"Messages"`
}

type mailjetRecipientStatus struct {
	MessageID    json.Number `json:"MessageID"`
	MessageUUID  string      `json:"MessageUUID"`
	MessageHref  string      `json:"MessageHref"`
	MessageState string      `json:"MessageState"`
}

type mailjetMessageResult struct {
	Status string                   `json:"Status"`
	Errors []json.RawMessage        `json:"Errors"`
	To     []mailjetRecipientStatus `json:"To"`
}

type mailjetResponse struct {
	Messages []mailjetMessageResult `json:"Messages"`
}

// Send implements Sender.Send. It posts one message to the v3.1 Send
// endpoint with basic auth and returns the provider's message identifier.
func (s *MailjetSender) Send(ctx context.Context, msg Message) (*SendResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	payload := mailjetPayload{
		Messages: []mailjetMessage{{
			From: mailjetAddress{
				Email: s.cfg.FromEmail,
				Name:  s.cfg.FromName,
			},
			To:       []mailjetAddress{{Email: msg.To}},
			Subject:  msg.Subject,
			TextPart: msg.TextPart,
			HTMLPart: msg.HTMLPart,
			CustomID: msg.CustomID,
		}},
	}
	if s.cfg.ReplyTo != "" {
		payload.Messages[0].ReplyTo = &mailjetAddress{Email: s.cfg.ReplyTo}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mailjet payload: %w", err)
	}

	url := strings.TrimRight(s.cfg.MailjetBaseURL, "/") + "/v3.1/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build mailjet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.cfg.MailjetAPIKey, s.cfg.MailjetAPISecret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: mailjet transport failure: %v", ErrSendFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read mailjet response: %v", ErrSendFailed, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		if resp.StatusCode == http.StatusUnauthorized {
			log.Error("mailjet authentication failed",
				slog.String("key_hint", maskSecret(s.cfg.MailjetAPIKey)),
				slog.String("secret_hint", maskSecret(s.cfg.MailjetAPISecret)))
			return nil, fmt.Errorf(
				"%w: mailjet authentication failed (401): verify the API key and secret "+
					"are active Send API keys (not SMTP credentials), belong to the same "+
					"account, and contain no whitespace (key=%s, secret=%s)",
				ErrSendFailed,
				maskSecret(s.cfg.MailjetAPIKey),
				maskSecret(s.cfg.MailjetAPISecret),
			)
		}
		return nil, fmt.Errorf(
			"%w: mailjet returned status %d: %s",
			ErrSendFailed, resp.StatusCode, truncateBody(respBody),
		)
	}

	var parsed mailjetResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf(
			"%w: mailjet returned non-JSON response: %s",
			ErrSendFailed, truncateBody(respBody),
		)
	}
	if len(parsed.Messages) == 0 {
		return nil, fmt.Errorf("%w: mailjet response contained no messages", ErrSendFailed)
	}

	result := parsed.Messages[0]
	status := strings.ToLower(result.Status)
	if status != "success" {
		return nil, fmt.Errorf("%w: mailjet returned non-success status %q", ErrSendFailed, status)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf(
			"%w: mailjet send returned %d errors: %s",
			ErrSendFailed, len(result.Errors), truncateBody(result.Errors[0]),
		)
	}
	if len(result.To) == 0 {
		return nil, fmt.Errorf("%w: mailjet response missing recipient status", ErrSendFailed)
	}

	recipient := result.To[0]
	messageID := recipient.MessageID.String()
	if messageID == "" || messageID == "0" {
		messageID = recipient.MessageUUID
	}
	if messageID == "" {
		return nil, fmt.Errorf("%w: mailjet response missing message identifier", ErrSendFailed)
	}

	log.Debug("mailjet accepted message",
		slog.String("message_id", messageID),
		slog.String("message_state", recipient.MessageState))

	return &SendResult{
		MessageID:    messageID,
		Status:       status,
		MessageHref:  recipient.MessageHref,
		MessageState: recipient.MessageState,
	}, nil
}

// maskSecret hides all but the edges of a credential for log hints.
func maskSecret(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + "..." + value[len(value)-4:]
}

func truncateBody(body []byte) string {
	if len(body) > maxErrorBodyBytes {
		body = body[:maxErrorBodyBytes]
	}
	return string(body)
}
