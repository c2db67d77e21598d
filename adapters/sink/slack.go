package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"driftwatch/domain/alert"
	"driftwatch/domain/core"
)

// Slack posts alert events to an incoming-webhook URL. One event per
// message; severity picks the emoji and attachment color.
type Slack struct {
	webhookURL string
	channel    string
	client     *http.Client
}

// NewSlack creates the sink. A zero timeout falls back to 10 seconds.
func NewSlack(webhookURL, channel string, timeout time.Duration) (*Slack, error) {
	if strings.TrimSpace(webhookURL) == "" {
		return nil, fmt.Errorf("%w: slack webhook URL required", core.ErrConfiguration)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Slack{
		webhookURL: webhookURL,
		channel:    channel,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// Name identifies the sink in dispatch logs
func (s *Slack) Name() string { return "slack" }

// Notify posts one event to the webhook
func (s *Slack) Notify(ctx context.Context, event alert.Event) error {
	type field struct {
		Title string `json:"title"`
		Value string `json:"value"`
		Short bool   `json:"short"`
	}
	type attachment struct {
		Color  string  `json:"color"`
		Title  string  `json:"title"`
		Text   string  `json:"text"`
		Fields []field `json:"fields,omitempty"`
		Footer string  `json:"footer"`
	}
	type payload struct {
		Channel     string       `json:"channel,omitempty"`
		Text        string       `json:"text"`
		Attachments []attachment `json:"attachments"`
	}

	att := attachment{
		Color:  severityColor(event.Severity),
		Title:  fmt.Sprintf("%s %s", severityEmoji(event.Severity), event.Kind),
		Text:   event.Message,
		Footer: "driftwatch",
	}
	if event.Feature != "" {
		att.Fields = append(att.Fields,
			field{Title: "Feature", Value: event.Feature, Short: true},
			field{Title: "Method", Value: event.Method, Short: true},
			field{Title: "Score", Value: fmt.Sprintf("%.4f", event.Score), Short: true},
			field{Title: "Threshold", Value: fmt.Sprintf("%.2f", event.Threshold), Short: true},
		)
	}
	for key, value := range event.Context {
		att.Fields = append(att.Fields, field{Title: key, Value: value, Short: true})
	}

	raw, err := json.Marshal(payload{
		Channel:     s.channel,
		Text:        event.Message,
		Attachments: []attachment{att},
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("slack http %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func severityColor(s alert.Severity) string {
	switch s {
	case alert.SeverityCritical:
		return "#a30200"
	case alert.SeverityError:
		return "danger"
	case alert.SeverityWarning:
		return "warning"
	default:
		return "good"
	}
}

func severityEmoji(s alert.Severity) string {
	switch s {
	case alert.SeverityCritical:
		return ":fire:"
	case alert.SeverityError:
		return ":rotating_light:"
	case alert.SeverityWarning:
		return ":warning:"
	default:
		return ":white_check_mark:"
	}
}
