// Package realtime subscribes to the managed order store's change feed
// over WebSocket (a Phoenix-style channel protocol).
//
// The client's only obligation is "on any event, refetch": it joins the
// table's topic, decodes insert/update/delete notifications, and invokes a
// callback per event. Row payloads are never surfaced; consumers always
// refetch the full authoritative set instead of merging.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// heartbeatInterval keeps the channel alive; the server drops silent
// connections after about a minute.
const heartbeatInterval = 30 * time.Second

// Client is a live subscription to one table's change feed.
type Client struct {
	conn    *websocket.Conn
	topic   string
	onEvent func(Event)

	closeOnce sync.Once
	done      chan struct{}

	mu  sync.Mutex // guards writes; gorilla allows one concurrent writer
	ref int
}

// Dial connects to the change feed at wsURL (the /realtime/v1 endpoint),
// authenticates with the anon key, joins the topic for table, and starts
// delivering events to onEvent from a background goroutine until Close.
//
// onEvent is called sequentially from a single goroutine and should return
// quickly; the usual implementation just pokes a refresh trigger.
func Dial(ctx context.Context, wsURL, key, table string, onEvent func(Event)) (*Client, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("realtime url: %w", err)
	}
	q := u.Query()
	q.Set("apikey", key)
	q.Set("vsn", "1.0.0")
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("realtime dial: %w", err)
	}

	c := &Client{
		conn:    conn,
		topic:   "realtime:public:" + table,
		onEvent: onEvent,
		done:    make(chan struct{}),
	}

	if err := c.join(); err != nil {
		conn.Close()
		return nil, err
	}

	go c.readLoop()
	go c.heartbeatLoop()
	return c, nil
}

// Close tears the subscription down. Safe to call more than once; the read
// and heartbeat goroutines exit promptly.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// join subscribes to the table topic.
func (c *Client) join() error {
	if err := c.write(message{Topic: c.topic, Event: eventJoin, Payload: json.RawMessage(`{}`)}); err != nil {
		return fmt.Errorf("realtime join: %w", err)
	}
	return nil
}

// write sends one frame, stamping a monotonically increasing ref.
func (c *Client) write(m message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ref++
	m.Ref = strconv.Itoa(c.ref)
	return c.conn.WriteJSON(m)
}

// readLoop decodes frames until the connection dies or Close is called.
func (c *Client) readLoop() {
	for {
		var m message
		if err := c.conn.ReadJSON(&m); err != nil {
			select {
			case <-c.done:
				// Deliberate close; not an error.
			default:
				slog.Warn("realtime connection lost", "topic", c.topic, "error", err)
			}
			return
		}

		switch m.Event {
		case eventReply, eventHeartbeat:
			// Protocol acknowledgements; nothing to do.
		case eventClose, eventError:
			slog.Warn("realtime channel closed by server", "topic", c.topic, "event", m.Event)
			return
		default:
			if kind, ok := changeEvents[m.Event]; ok && m.Topic == c.topic {
				c.onEvent(Event{Type: kind, Table: c.topic})
			}
		}
	}
}

// heartbeatLoop keeps the connection alive until Close.
func (c *Client) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.write(message{Topic: "phoenix", Event: eventHeartbeat, Payload: json.RawMessage(`{}`)}); err != nil {
				slog.Debug("realtime heartbeat failed", "error", err)
				return
			}
		}
	}
}
