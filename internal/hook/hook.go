// Package hook posts build results to a configured webhook so CI and chat
// integrations can react to site builds.
package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cameronsjo/pagewright/internal/site"
)

// EnvURL is consulted when pagewright.yaml leaves the webhook URL unset.
const EnvURL = "PAGEWRIGHT_WEBHOOK_URL"

// Result summarizes one build for the webhook payload.
type Result struct {
	Site     string
	Pages    int
	Skipped  int
	Failed   int
	Warnings int64
	Errors   int64
	Elapsed  time.Duration
	Success  bool
}

// payload is the JSON body posted to the webhook.
type payload struct {
	Event    string `json:"event"`
	Status   string `json:"status"`
	Site     string `json:"site"`
	Pages    int    `json:"pages"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
	Warnings int64  `json:"warnings"`
	Errors   int64  `json:"errors"`
	Elapsed  string `json:"elapsed"`
	At       string `json:"at"`
}

// Notifier sends build results to a webhook.
type Notifier struct {
	url    string
	cfg    site.HooksConfig
	client *http.Client
}

// New creates a notifier for cfg. If cfg.URL is empty, the PAGEWRIGHT_WEBHOOK_URL
// environment variable is consulted.
func New(cfg site.HooksConfig) *Notifier {
	url := cfg.URL
	if url == "" {
		url = os.Getenv(EnvURL)
	}

	return &Notifier{
		url: url,
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// IsConfigured returns true if a webhook URL is set.
func (n *Notifier) IsConfigured() bool {
	return n.url != ""
}

// Notify posts the result. Unconfigured notifiers and results filtered out
// by on_success/on_failure are silent no-ops.
func (n *Notifier) Notify(ctx context.Context, r Result) error {
	if !n.IsConfigured() {
		return nil
	}
	if r.Success && !n.cfg.OnSuccess {
		return nil
	}
	if !r.Success && !n.cfg.OnFailure {
		return nil
	}

	status := "success"
	if !r.Success {
		status = "failure"
	}
	body, err := json.Marshal(payload{
		Event:    "build",
		Status:   status,
		Site:     r.Site,
		Pages:    r.Pages,
		Skipped:  r.Skipped,
		Failed:   r.Failed,
		Warnings: r.Warnings,
		Errors:   r.Errors,
		Elapsed:  r.Elapsed.Round(time.Millisecond).String(),
		At:       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}
