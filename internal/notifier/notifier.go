// Package notifier publishes finalized-record events to NATS and carries the
// subscription used to trigger post-call processing.
package notifier

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/payerline/postcall/internal/record"
)

// RecordEvent is emitted when a post-call record is finalized, so downstream
// systems (billing queues, dashboards) can react without polling storage.
type RecordEvent struct {
	EventID     string `json:"event_id"`
	CallID      string `json:"call_id"`
	PayerName   string `json:"payer_name"`
	Status      string `json:"status"`
	Outcome     string `json:"outcome"`
	Path        string `json:"path"`
	FinalizedAt string `json:"finalized_at"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

// PublishRecord emits a RecordEvent for a finalized record.
func (c *Client) PublishRecord(subject string, rec *record.Record, path string) error {
	event := RecordEvent{
		EventID:     uuid.NewString(),
		CallID:      rec.CallID,
		PayerName:   rec.PayerName,
		Status:      string(rec.Authorization.Status),
		Outcome:     string(rec.CallOutcome),
		Path:        path,
		FinalizedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := c.Publish(subject, event); err != nil {
		return fmt.Errorf("publish record event: %w", err)
	}
	c.logger.Info("record event published",
		"subject", subject,
		"event_id", event.EventID,
		"call_id", rec.CallID,
	)
	return nil
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
