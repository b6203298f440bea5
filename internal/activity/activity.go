// Package activity accumulates human-readable activity lines over a
// request's lifetime and flushes them as one batched chat notification.
//
// The accumulator is an explicit request-scoped value carried through
// context, not ambient storage. Flushing is fire-and-forget: the response
// is never delayed by, and never observes failures of, the webhook post.
package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Accumulator collects activity lines for a single request.
type Accumulator struct {
	mu      sync.Mutex
	entries []string
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append adds one activity line.
func (a *Accumulator) Append(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, msg)
}

// Drain returns all accumulated lines and clears the buffer.
func (a *Accumulator) Drain() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	drained := a.entries
	a.entries = nil
	return drained
}

// Len reports the number of buffered lines.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

type accumulatorKey struct{}

// WithAccumulator attaches an accumulator to the context.
func WithAccumulator(ctx context.Context, acc *Accumulator) context.Context {
	return context.WithValue(ctx, accumulatorKey{}, acc)
}

// FromContext retrieves the request's accumulator, nil when absent.
func FromContext(ctx context.Context) *Accumulator {
	acc, _ := ctx.Value(accumulatorKey{}).(*Accumulator)
	return acc
}

// Logf appends a formatted line to the request's accumulator. A no-op
// outside a request (workers, tests without the middleware).
func Logf(ctx context.Context, format string, args ...any) {
	if acc := FromContext(ctx); acc != nil {
		acc.Append(fmt.Sprintf(format, args...))
	}
}

// Notifier posts batched activity to a chat webhook.
type Notifier struct {
	webhookURL string
	http       *http.Client
	logger     *slog.Logger
}

// NewNotifier builds a notifier. An empty webhook URL disables posting;
// flushes still drain the accumulator.
func NewNotifier(webhookURL string, logger *slog.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		http:       &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type webhookPayload struct {
	Content string `json:"content"`
}

// Flush drains the accumulator and posts one batched message in a detached
// task. The returned channel closes when the task finishes; callers may
// observe it but requests never do. Failures are logged and swallowed.
func (n *Notifier) Flush(acc *Accumulator) <-chan struct{} {
	done := make(chan struct{})

	entries := acc.Drain()
	if len(entries) == 0 || n.webhookURL == "" {
		close(done)
		return done
	}

	go func() {
		defer close(done)

		// Detached from the request lifetime on purpose: the flush has no
		// cancellation semantics.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := n.post(ctx, strings.Join(entries, "\n")); err != nil {
			n.logger.Warn("activity flush failed",
				"error", err,
				"entries", len(entries),
			)
		}
	}()

	return done
}

func (n *Notifier) post(ctx context.Context, content string) error {
	body, err := json.Marshal(webhookPayload{Content: content})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("post webhook: status %d", resp.StatusCode)
	}
	return nil
}

// Middleware installs a fresh accumulator per request and flushes it after
// the handler returns.
func Middleware(notifier *Notifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acc := NewAccumulator()
			next.ServeHTTP(w, r.WithContext(WithAccumulator(r.Context(), acc)))
			notifier.Flush(acc)
		})
	}
}
