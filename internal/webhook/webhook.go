package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"wfseller/internal/common"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
)

const (
	ColorVisible = 0x2ECC71
	ColorHidden  = 0x95A5A6
	ColorPosted  = 0xF58A42
	ColorError   = 0xD11197
)

type Embed struct {
	Color       int          `json:"color"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type WebhookPayload struct {
	Embeds []Embed `json:"embeds"`
}

// Notifier posts Discord embeds. A Notifier with an empty URL does nothing.
type Notifier struct {
	url    string
	client *http.Client
}

func NewNotifier(url string) *Notifier {
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: 3 * time.Second},
	}
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.url != ""
}

func (n *Notifier) Send(ctx context.Context, embeds ...Embed) error {
	if !n.Enabled() || len(embeds) == 0 {
		return nil
	}

	stamped := make([]Embed, len(embeds))
	copy(stamped, embeds)
	for i := range stamped {
		if stamped[i].Timestamp == "" {
			stamped[i].Timestamp = time.Now().UTC().Format(time.RFC3339)
		}
	}

	payloadJSON, err := json.Marshal(WebhookPayload{Embeds: stamped})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payloadJSON))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return common.TransportError("POST webhook", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %s: %s", resp.Status, string(body))
	}

	log.Debug("Webhook sent", "Status", resp.Status)
	return nil
}
