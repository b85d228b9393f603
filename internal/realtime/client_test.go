package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFeed is a minimal channel server: it accepts the join, replies, and
// then pushes whatever frames the test queues.
type fakeFeed struct {
	upgrader websocket.Upgrader
	push     chan message
	joined   chan message
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		push:   make(chan message, 8),
		joined: make(chan message, 1),
	}
}

func (f *fakeFeed) handler(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var join message
	if err := conn.ReadJSON(&join); err != nil {
		return
	}
	f.joined <- join
	_ = conn.WriteJSON(message{Topic: join.Topic, Event: eventReply, Ref: join.Ref})

	for m := range f.push {
		if err := conn.WriteJSON(m); err != nil {
			return
		}
	}
}

func dialFake(t *testing.T, f *fakeFeed, onEvent func(Event)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(f.handler))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, err := Dial(context.Background(), wsURL, "anon-key", "orders", onEvent)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestDial_JoinsOrdersTopic(t *testing.T) {
	f := newFakeFeed()
	dialFake(t, f, func(Event) {})

	select {
	case join := <-f.joined:
		assert.Equal(t, "realtime:public:orders", join.Topic)
		assert.Equal(t, eventJoin, join.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("join never arrived")
	}
}

func TestClient_DeliversChangeEvents(t *testing.T) {
	f := newFakeFeed()
	events := make(chan Event, 4)
	dialFake(t, f, func(e Event) { events <- e })

	<-f.joined
	f.push <- message{Topic: "realtime:public:orders", Event: "INSERT"}
	f.push <- message{Topic: "realtime:public:orders", Event: "UPDATE"}
	f.push <- message{Topic: "realtime:public:orders", Event: "DELETE"}

	for _, want := range []EventType{EventInsert, EventUpdate, EventDelete} {
		select {
		case e := <-events:
			assert.Equal(t, want, e.Type)
		case <-time.After(2 * time.Second):
			t.Fatalf("event %s never delivered", want)
		}
	}
}

func TestClient_IgnoresRepliesAndForeignTopics(t *testing.T) {
	f := newFakeFeed()
	events := make(chan Event, 4)
	dialFake(t, f, func(e Event) { events <- e })

	<-f.joined
	f.push <- message{Topic: "realtime:public:orders", Event: eventReply}
	f.push <- message{Topic: "realtime:public:reservations", Event: "INSERT"}
	f.push <- message{Topic: "realtime:public:orders", Event: "INSERT"}

	select {
	case e := <-events:
		// Only the orders INSERT comes through.
		assert.Equal(t, EventInsert, e.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("event never delivered")
	}
	assert.Empty(t, events)
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	f := newFakeFeed()
	c := dialFake(t, f, func(Event) {})

	require.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestDial_RefusedConnection(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:0", "k", "orders", func(Event) {})
	assert.Error(t, err)
}
