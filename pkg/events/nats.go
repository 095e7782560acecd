package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// MessagePublisher is the slice of *nats.Conn the forwarder needs
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

// NATSForwarder republishes domain events on "<prefix>.<event type>" so
// processes outside this one can observe games.
type NATSForwarder struct {
	conn   MessagePublisher
	prefix string
	logger *zap.Logger
}

func NewNATSForwarder(conn MessagePublisher, prefix string, logger *zap.Logger) *NATSForwarder {
	return &NATSForwarder{conn: conn, prefix: prefix, logger: logger}
}

// Attach subscribes the forwarder to every event of p
func (f *NATSForwarder) Attach(p *Publisher) {
	p.SubscribeAll(f.Forward)
}

// Forward publishes one event. Failures are logged and dropped.
func (f *NATSForwarder) Forward(event Event) {
	subject := fmt.Sprintf("%s.%s", f.prefix, event.Type)

	data, err := json.Marshal(event)
	if err != nil {
		f.logger.Error("marshal event", zap.String("subject", subject), zap.Error(err))
		return
	}

	if err := f.conn.Publish(subject, data); err != nil {
		f.logger.Error("publish event",
			zap.String("subject", subject),
			zap.String("room_id", event.RoomID),
			zap.Error(err),
		)
		return
	}

	f.logger.Debug("event forwarded", zap.String("subject", subject), zap.String("room_id", event.RoomID))
}

// ConnectNATS dials the NATS server with reconnects enabled
func ConnectNATS(url string, logger *zap.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("chesshero"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Error("NATS error", zap.Error(err))
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}
