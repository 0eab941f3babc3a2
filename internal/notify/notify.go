// Package notify delivers push notifications outside the request path.
//
// Callers hand a Job to a Dispatcher after the mutation that triggered it has
// committed. Dispatchers never report delivery errors back to the caller; they
// log them and apply their own retry policy.
package notify

import (
	"context"
	"errors"
	"log"
)

// Message is the visible content of a push notification.
type Message struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Job is one notification addressed to one or more device tokens.
type Job struct {
	Tokens  []string `json:"tokens"`
	Message Message  `json:"message"`
}

// MulticastReport summarises a fan-out. It is only ever logged.
type MulticastReport struct {
	SuccessCount int
	FailureCount int
	FailedTokens []string
}

// Notifier talks to the push provider.
type Notifier interface {
	Send(ctx context.Context, token string, msg Message) error
	SendMulticast(ctx context.Context, tokens []string, msg Message) (*MulticastReport, error)
}

// Dispatcher accepts jobs fire-and-forget.
type Dispatcher interface {
	Dispatch(job Job)
}

var errNoTokens = errors.New("notify: job has no tokens")

// Deliver sends a job through n, choosing a single send or a multicast by
// token count. Per-token multicast failures are logged, not returned.
func Deliver(ctx context.Context, n Notifier, job Job) error {
	tokens := compactTokens(job.Tokens)
	switch len(tokens) {
	case 0:
		return errNoTokens
	case 1:
		if err := n.Send(ctx, tokens[0], job.Message); err != nil {
			return err
		}
		log.Printf("[Notify] sent %q to %s", job.Message.Title, tokenPrefix(tokens[0]))
		return nil
	}

	report, err := n.SendMulticast(ctx, tokens, job.Message)
	if err != nil {
		return err
	}
	log.Printf("[Notify] broadcast %q: %d successes, %d failures", job.Message.Title, report.SuccessCount, report.FailureCount)
	for _, t := range report.FailedTokens {
		log.Printf("[Notify] delivery failed for token %s", tokenPrefix(t))
	}
	return nil
}

func compactTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func tokenPrefix(token string) string {
	if len(token) <= 10 {
		return token
	}
	return token[:10] + "..."
}

// NoopNotifier is used when no push credentials are configured.
type NoopNotifier struct{}

func (NoopNotifier) Send(_ context.Context, token string, msg Message) error {
	log.Printf("[Notify] push disabled, skipping %q for %s", msg.Title, tokenPrefix(token))
	return nil
}

func (NoopNotifier) SendMulticast(_ context.Context, tokens []string, msg Message) (*MulticastReport, error) {
	log.Printf("[Notify] push disabled, skipping broadcast %q to %d tokens", msg.Title, len(tokens))
	return &MulticastReport{SuccessCount: len(tokens)}, nil
}
