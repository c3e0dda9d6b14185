// Package source subscribes to the stream of update notifications.
package source

import (
	"context"

	"github.com/coder/websocket"

	"github.com/keboola/kv-relay/internal/pkg/log"
	"github.com/keboola/kv-relay/internal/pkg/service/relay/event"
	"github.com/keboola/kv-relay/internal/pkg/utils/errors"
)

// WatchAllPath identifies the "watch all keys" stream of the source.
const WatchAllPath = "/v1/watch/all"

const maxMessageSize = 1 << 20 // 1MB

// Subscription is one open connection to the update source.
// Received events are available on the Events channel, the channel is closed
// when the subscription fails or is closed, then the Err method reports the reason.
type Subscription struct {
	logger log.Logger
	conn   *websocket.Conn
	events chan event.UpdateEvent
	err    error
}

// Subscribe opens the stream.
// A malformed message is skipped with a warning, it does not end the subscription.
func Subscribe(ctx context.Context, logger log.Logger, baseURL string) (*Subscription, error) {
	url := baseURL + WatchAllPath
	conn, _, err := websocket.Dial(ctx, url, nil) //nolint:bodyclose // the lib closes the body
	if err != nil {
		return nil, errors.Wrapf(err, `cannot subscribe to "%s"`, url)
	}
	conn.SetReadLimit(maxMessageSize)

	s := &Subscription{
		logger: logger,
		conn:   conn,
		events: make(chan event.UpdateEvent),
	}
	go s.receive(ctx)
	return s, nil
}

func (s *Subscription) Events() <-chan event.UpdateEvent {
	return s.events
}

// Err returns the reason why the Events channel was closed.
// It must be called only after the channel is closed.
func (s *Subscription) Err() error {
	return s.err
}

// Close terminates the subscription, the Events channel is closed.
func (s *Subscription) Close() {
	_ = s.conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Subscription) receive(ctx context.Context) {
	defer close(s.events)
	for {
		_, message, err := s.conn.Read(ctx)
		if err != nil {
			s.err = err
			return
		}

		ev, err := event.Parse(message)
		if err != nil {
			s.logger.Warnf(`skipped message: %s`, err)
			continue
		}

		select {
		case s.events <- ev:
		case <-ctx.Done():
			s.err = ctx.Err()
			return
		}
	}
}
