package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const (
	SubjectBookingCreated = "roombook.booking.created"
	SubjectGrantRequested = "roombook.grant.requested"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data any) error
	Close() error
}

type BookingCreated struct {
	Date           string    `json:"date"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time"`
	Representative string    `json:"representative"`
	Participants   int       `json:"participants"`
	CreatedAt      time.Time `json:"created_at"`
}

// GrantRequested is sent so an administrator can approve the application.
type GrantRequested struct {
	GroupName      string    `json:"group_name"`
	Representative string    `json:"representative"`
	Contact        string    `json:"contact"`
	DateRange      string    `json:"date_range"`
	Weekdays       string    `json:"weekdays"`
	TimeRange      string    `json:"time_range"`
	Purpose        string    `json:"purpose"`
	RequestedAt    time.Time `json:"requested_at"`
}

type NATSPublisher struct {
	conn *nats.Conn
	log  logrus.FieldLogger
}

func NewNATSPublisher(url string, log logrus.FieldLogger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("roombook"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, log: log.WithField("component", "events")}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	n.log.WithField("subject", subject).Debug("publishing event")
	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	return n.conn.Drain()
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() error                               { return nil }
