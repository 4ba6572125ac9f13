package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dtroode/userdir-server/internal/model"
)

// HTTPSink posts events as JSON to a logging service.
type HTTPSink struct {
	client *http.Client
	url    string
}

func NewHTTPSink(client *http.Client, url string) *HTTPSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSink{client: client, url: url}
}

func (s *HTTPSink) Send(ctx context.Context, event model.Event) error {
	body, err := encode(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("log service responded with status %d", resp.StatusCode)
	}

	return nil
}
