package realtime

import "encoding/json"

// message is the Phoenix channel envelope the managed store's change feed
// speaks: every frame in both directions carries topic/event/payload/ref.
type message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref"`
}

// Channel protocol events.
const (
	eventJoin      = "phx_join"
	eventReply     = "phx_reply"
	eventHeartbeat = "heartbeat"
	eventClose     = "phx_close"
	eventError     = "phx_error"
)

// EventType is the kind of change that happened to a row.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Event is one change notification. The payload row is deliberately not
// exposed: subscribers refetch the authoritative set on any event rather
// than merging partial updates.
type Event struct {
	Type  EventType
	Table string
}

// changeEvents maps wire events to change kinds; anything else on the
// channel (replies, presence) is protocol noise.
var changeEvents = map[string]EventType{
	"INSERT": EventInsert,
	"UPDATE": EventUpdate,
	"DELETE": EventDelete,
	"*":      EventUpdate,
}
