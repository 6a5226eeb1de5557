package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"arbwatch/internal/application/port"
)

const DefaultAPIURL = "https://api.telegram.org"

// Sink delivers alerts through the Bot API sendMessage; destination is the chat id.
type Sink struct {
	token  string
	apiURL string
	client *http.Client
}

func NewSink(token, apiURL string) *Sink {
	if strings.TrimSpace(apiURL) == "" {
		apiURL = DefaultAPIURL
	}
	return &Sink{
		token:  token,
		apiURL: strings.TrimRight(apiURL, "/"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Sink) Send(ctx context.Context, destination, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiURL, s.token)

	body, err := json.Marshal(map[string]string{
		"chat_id": destination,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

var _ port.AlertSink = (*Sink)(nil)
