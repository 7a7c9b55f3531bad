package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"codefolio/internal/domain/models"
	"codefolio/internal/replica"
)

// Change is one event applied to the local replica.
type Change struct {
	Event   models.ChangeEvent
	Outcome replica.Outcome
}

// Watch loads the record list into rep, then applies every change event
// from the server until ctx ends or the server closes the channel.
// The channel is subscribed before the initial fetch so no commit falls
// between the two.
func (c *Client) Watch(ctx context.Context, rep *replica.Replica, onChange func(Change)) error {
	wsURL, err := c.WebSocketURL()
	if err != nil {
		return err
	}

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return fmt.Errorf("connect %s: %w", wsURL, err)
	}
	defer conn.Close()

	// Unblock ReadJSON on cancellation
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	records, err := c.ListFiles(ctx)
	if err != nil {
		return err
	}
	rep.Load(records)

	for {
		var event models.ChangeEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("server closed channel: %w", err)
			}
			return fmt.Errorf("read event: %w", err)
		}

		outcome := rep.Apply(event)
		if onChange != nil && event.Type != models.EventConnected {
			onChange(Change{Event: event, Outcome: outcome})
		}
	}
}
