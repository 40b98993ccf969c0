// Package webhook delivers per-task submission notifications. Delivery
// failure is non-fatal and not retried; the webhook is a courtesy
// signal, not part of the moderation contract.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Notifier struct {
	client *http.Client
}

func NewNotifier() *Notifier {
	return &Notifier{client: &http.Client{Timeout: 10 * time.Second}}
}

// Notify POSTs the payload to the task's configured sink.
func (n *Notifier) Notify(ctx context.Context, url string, payload interface{}) error {
	if url == "" {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("webhook sink returned status %d", res.StatusCode)
	}
	return nil
}
