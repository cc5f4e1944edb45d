package events

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "rentals.messages."

// NATSPublisher publishes events on rentals.messages.<type>.
type NATSPublisher struct {
	nc *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("rental-messaging-backend"))
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{nc: nc}, nil
}

func Subject(eventType string) string {
	return subjectPrefix + eventType
}

func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.nc.Publish(Subject(ev.Type), b)
}

func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
