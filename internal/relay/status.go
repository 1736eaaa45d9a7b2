package relay

import (
	"fmt"
	"strings"

	"sealchat/internal/domain"
)

// StatusPrefix is the literal marker in front of every status frame. It is
// parsed byte-for-byte by clients and must never change.
const StatusPrefix = "STATUS:"

// Status frame texts. A status frame is informational, sent only to the
// connection that triggered the event it reports, and never persisted.
const (
	StatusConnected     = StatusPrefix + "Connected successfully"
	StatusDelivered     = StatusPrefix + "Message delivered"
	StatusMismatch      = StatusPrefix + "Sender ID mismatch"
	StatusDeliveryFail  = StatusPrefix + "Delivery failed"
	StatusUnknownType   = StatusPrefix + "Unknown message type"
	StatusInvalidFormat = StatusPrefix + "Invalid message format"
	StatusPairMissingTo = StatusPrefix + "Missing 'to' field in pair request"
	StatusUnauthorized  = StatusPrefix + "Unauthorized - please log in"
)

func statusMissingFields(fields []string) string {
	return StatusPrefix + "Missing fields: " + strings.Join(fields, ", ")
}

func statusOffline(to domain.Identity) string {
	return fmt.Sprintf("%sUser %s is not online", StatusPrefix, to)
}

func statusPaired(peer domain.Identity) string {
	return fmt.Sprintf("%sPaired with %s", StatusPrefix, peer)
}
