package client

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/crazy-sam-02/foodexpress-sub001/models"
)

// ListenNotifications dials the push channel and prepends each pushed
// notification to the mirrored list until the context ends or the
// connection drops. Push is best-effort and at-most-once: correctness
// always comes from RefreshNotifications, never from this stream.
func (c *Client) ListenNotifications(ctx context.Context) error {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/ws/notifications"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		var event struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &event); err != nil {
			continue // unknown frame, push is advisory only
		}
		if event.Event != "notification:new" {
			continue
		}

		var n models.Notification
		if err := json.Unmarshal(event.Data, &n); err != nil {
			continue
		}
		c.mirror.prependNotification(n)
	}
}
