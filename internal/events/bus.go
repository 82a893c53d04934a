// Pizza Hunt - Offline-First Pizza Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pizzahunt

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/pizzahunt/internal/breaker"
	"github.com/tomtom215/pizzahunt/internal/config"
	"github.com/tomtom215/pizzahunt/internal/logging"
	"github.com/tomtom215/pizzahunt/internal/metrics"
)

// ErrBusClosed is returned by Publish after Close.
var ErrBusClosed = errors.New("event bus is closed")

// Handler consumes one event. Errors are logged; the message is still acked
// since events are notifications and redelivery would only duplicate them.
type Handler func(ctx context.Context, e Event) error

// Bus publishes store changes and fans them out to a handler. It runs over
// an in-process Go channel unless NATS is enabled, in which case it uses
// JetStream, optionally against an embedded server.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	breaker    *breaker.Breaker
	embedded   *EmbeddedServer
	logger     watermill.LoggerAdapter
	backend    string

	// shared is set when publisher and subscriber are the same Go channel.
	shared bool

	mu     sync.RWMutex
	closed bool
}

// NewBus builds the bus described by cfg.
func NewBus(cfg *config.NATSConfig) (*Bus, error) {
	logger := NewLoggerAdapter()

	b := &Bus{
		logger:  logger,
		breaker: breaker.New("event-bus", breaker.DefaultConfig()),
	}

	if !cfg.Enabled {
		ch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, logger)
		b.publisher = ch
		b.subscriber = ch
		b.shared = true
		b.backend = "gochannel"
		return b, nil
	}

	natsURL := cfg.URL
	if cfg.EmbeddedServer {
		srv, err := NewEmbeddedServer(cfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		b.embedded = srv
		natsURL = srv.ClientURL()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("pizzahunt"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         natsURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			TrackMsgId:    true,
		},
	}, logger)
	if err != nil {
		b.shutdownEmbedded()
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              natsURL,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.DeliverNew(),
				natsgo.AckExplicit(),
			},
		},
	}, logger)
	if err != nil {
		_ = pub.Close()
		b.shutdownEmbedded()
		return nil, fmt.Errorf("create NATS subscriber: %w", err)
	}

	b.publisher = pub
	b.subscriber = sub
	b.backend = "nats"
	return b, nil
}

// Backend returns "gochannel" or "nats".
func (b *Bus) Backend() string {
	return b.backend
}

// Publish sends e to every subscriber. Publishing is guarded by a circuit
// breaker so a dead broker fails fast instead of stalling API handlers.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	data, err := e.Marshal()
	if err != nil {
		return err
	}

	msg := message.NewMessage(e.ID, data)
	msg.Metadata.Set("type", string(e.Type))
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set("request_id", id)
	}
	msg.Metadata.Set(natsgo.MsgIdHdr, e.ID)

	err = b.breaker.Execute(func() error {
		return b.publisher.Publish(Topic, msg)
	})
	metrics.RecordEventPublish(string(e.Type), err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// Serve subscribes to the topic and hands every event to h until ctx is
// canceled. It implements suture.Service.
func (b *Bus) Serve(ctx context.Context, h Handler) error {
	messages, err := b.subscriber.Subscribe(ctx, Topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", Topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.handle(msg, h)
		}
	}
}

func (b *Bus) handle(msg *message.Message, h Handler) {
	defer msg.Ack()

	e, err := Unmarshal(msg.Payload)
	if err != nil {
		b.logger.Error("Dropping malformed event", err, watermill.LogFields{"message_uuid": msg.UUID})
		return
	}
	metrics.EventsConsumed.WithLabelValues(string(e.Type)).Inc()

	ctx := msg.Context()
	if id := msg.Metadata.Get("request_id"); id != "" {
		ctx = logging.ContextWithRequestID(ctx, id)
	}
	if err := h(ctx, e); err != nil {
		b.logger.Error("Event handler failed", err, watermill.LogFields{
			"event_id": e.ID,
			"type":     string(e.Type),
		})
	}
}

// Close stops publishing and subscribing and shuts down the embedded server.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if !b.shared {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	b.shutdownEmbedded()
	return errors.Join(errs...)
}

func (b *Bus) shutdownEmbedded() {
	if b.embedded != nil {
		b.embedded.Shutdown()
	}
}

// Service adapts Serve with a fixed handler to suture.Service.
type Service struct {
	bus     *Bus
	handler Handler
}

// NewService returns a supervisor-friendly consumer of bus events.
func NewService(bus *Bus, h Handler) *Service {
	return &Service{bus: bus, handler: h}
}

func (s *Service) Serve(ctx context.Context) error {
	return s.bus.Serve(ctx, s.handler)
}

func (s *Service) String() string {
	return "event-consumer"
}
