package relay

// Close codes for the three distinguishable close outcomes. Deployed clients
// tell them apart, so the codes must not be collapsed.
const (
	// CloseSuperseded is sent to a connection replaced by a newer one for
	// the same identity. Normal closure plus ReasonSuperseded.
	CloseSuperseded = 1000
	// ClosePolicy rejects an unauthenticated connection.
	ClosePolicy = 1008
	// CloseInternal terminates a connection on a server-side failure.
	CloseInternal = 1011
)

// ReasonSuperseded is the close reason accompanying CloseSuperseded.
const ReasonSuperseded = "superseded by newer connection"

// Handle is a live, send/receive-capable transport channel bound to one
// identity. The registry owns a handle for its registered lifetime; the
// session loop holds a working reference while processing frames.
//
// A handle is either open or closed; once closed it is never reused.
// WriteJSON and WriteText must be safe for concurrent use, since peers'
// session loops write to a recipient handle while its own loop writes
// status frames.
type Handle interface {
	// ReadFrame blocks until the next inbound frame arrives or the handle
	// fails. It is called from a single reader goroutine only.
	ReadFrame() ([]byte, error)
	WriteJSON(v any) error
	WriteText(s string) error
	// Close closes the handle with the given code and reason. Closing an
	// already-closed handle is a no-op.
	Close(code int, reason string) error
	Closed() bool
}

// controlFrame is the liveness frame exchanged in both directions.
type controlFrame struct {
	Type string `json:"type"`
}

var (
	pingFrame = controlFrame{Type: "ping"}
	pongFrame = controlFrame{Type: "pong"}
)
