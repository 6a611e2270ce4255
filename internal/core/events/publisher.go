package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Listing lifecycle subjects, relative to the configured prefix.
const (
	ListingCreated   = "listing.created"
	ListingUpdated   = "listing.updated"
	ListingBlocked   = "listing.blocked"
	ListingValidated = "listing.validated"
	ListingDeleted   = "listing.deleted"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close()
}

// Envelope wraps every published payload.
type Envelope struct {
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

func NewNATS(url, prefix string, l *zap.Logger) (*NATSPublisher, error) {
	if l == nil {
		l = zap.NewNop()
	}
	conn, err := nats.Connect(url,
		nats.Name("auto-ria"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				l.Warn("nats: disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			l.Info("nats: reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

func (p *NATSPublisher) subject(s string) string {
	if p.prefix == "" {
		return s
	}
	return p.prefix + "." + s
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subj := p.subject(subject)
	b, err := json.Marshal(Envelope{Subject: subj, OccurredAt: time.Now().UTC(), Data: payload})
	if err != nil {
		return err
	}
	return p.conn.Publish(subj, b)
}

func (p *NATSPublisher) Close() {
	_ = p.conn.Drain()
}

// Nop drops every event. Used when nats.url is empty.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close()                                     {}
