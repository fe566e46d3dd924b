package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Sink delivers an encoded outcome to one kind of destination. target is
// the destination with the routing scheme already interpreted: a full URL
// for webhooks, a topic for MQTT.
type Sink interface {
	Deliver(ctx context.Context, target string, body []byte) error
}

// WebhookSink POSTs outcomes as JSON.
type WebhookSink struct {
	client *http.Client
}

// NewWebhookSink creates a webhook sink whose requests are bounded by timeout.
func NewWebhookSink(timeout time.Duration) *WebhookSink {
	return &WebhookSink{client: &http.Client{Timeout: timeout}}
}

func (s *WebhookSink) Deliver(ctx context.Context, target string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

// Publisher is the subset of the MQTT client used for notifications.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// MQTTSink publishes outcomes to a broker topic.
type MQTTSink struct {
	pub Publisher
}

func NewMQTTSink(pub Publisher) *MQTTSink {
	return &MQTTSink{pub: pub}
}

func (s *MQTTSink) Deliver(_ context.Context, topic string, body []byte) error {
	if topic == "" {
		return fmt.Errorf("mqtt destination has no topic")
	}
	return s.pub.Publish(topic, body)
}

// WriterSink writes one outcome per line to w.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Deliver(_ context.Context, _ string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(body); err != nil {
		return err
	}
	_, err := s.w.Write([]byte("\n"))
	return err
}
