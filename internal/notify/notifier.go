package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/snarg/drive-transcriber/internal/metrics"
)

var (
	ErrNoDestination     = errors.New("no notification destination")
	ErrUnsupportedScheme = errors.New("unsupported destination scheme")
	ErrSinkNotConfigured = errors.New("sink not configured")
	ErrLocalDestination  = errors.New("destination reserved for local callers")
)

// CheckRemote reports whether a destination supplied by a remote client
// may be used. stdout: belongs to the CLI; only webhook and MQTT
// destinations are accepted. An empty destination is allowed and falls
// back to the configured default.
func CheckRemote(dest string) error {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return nil
	}
	u, err := url.Parse(dest)
	if err != nil {
		return fmt.Errorf("parse destination: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mqtt":
		return nil
	case "stdout":
		return ErrLocalDestination
	default:
		return fmt.Errorf("%w %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// Options wires the sinks available to a Notifier. Nil sinks make their
// scheme unavailable.
type Options struct {
	Webhook Sink
	MQTT    Sink
	Stdout  Sink
	Log     zerolog.Logger
}

// Notifier routes outcomes to their destination by scheme:
//
//	http://, https://  webhook POST
//	mqtt://<topic>     MQTT publish
//	stdout:            process stdout
type Notifier struct {
	webhook Sink
	mqtt    Sink
	stdout  Sink
	log     zerolog.Logger
}

func NewNotifier(opts Options) *Notifier {
	return &Notifier{
		webhook: opts.Webhook,
		mqtt:    opts.MQTT,
		stdout:  opts.Stdout,
		log:     opts.Log,
	}
}

// Notify delivers outcome to dest once. Delivery failures are logged and
// counted; nothing is retried and no error reaches the caller.
func (n *Notifier) Notify(ctx context.Context, dest string, outcome Outcome) {
	name, err := n.deliver(ctx, dest, outcome)
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(name, "error").Inc()
		n.log.Error().Err(err).
			Str("sink", name).
			Bool("job_failed", outcome.Failed()).
			Msg("notification failed")
		return
	}
	metrics.NotificationsTotal.WithLabelValues(name, "ok").Inc()
	n.log.Debug().Str("sink", name).Msg("notification delivered")
}

func (n *Notifier) deliver(ctx context.Context, dest string, outcome Outcome) (string, error) {
	name, sink, target, err := n.route(dest)
	if err != nil {
		return name, err
	}
	body, err := json.Marshal(outcome)
	if err != nil {
		return name, err
	}
	return name, sink.Deliver(ctx, target, body)
}

func (n *Notifier) route(dest string) (string, Sink, string, error) {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return "none", nil, "", ErrNoDestination
	}
	u, err := url.Parse(dest)
	if err != nil {
		return "none", nil, "", fmt.Errorf("parse destination: %w", err)
	}

	var (
		name   string
		sink   Sink
		target string
	)
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		name, sink, target = "webhook", n.webhook, dest
	case "mqtt":
		name, sink, target = "mqtt", n.mqtt, strings.Trim(u.Host+u.Path, "/")
	case "stdout":
		name, sink = "stdout", n.stdout
	default:
		return "none", nil, "", fmt.Errorf("%w %q", ErrUnsupportedScheme, u.Scheme)
	}
	if sink == nil {
		return name, nil, "", fmt.Errorf("%s: %w", name, ErrSinkNotConfigured)
	}
	return name, sink, target, nil
}
