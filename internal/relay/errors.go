package relay

import (
	"errors"
	"fmt"
	"strings"

	"sealchat/internal/domain"
)

// ErrDeliveryFailed reports an I/O failure writing to the recipient's handle.
// The recipient is evicted as a side effect; the envelope is not retried.
var ErrDeliveryFailed = errors.New("delivery failed")

// MalformedPayloadError reports an envelope missing required fields. It is a
// per-message condition; the sender's session continues.
type MalformedPayloadError struct {
	Missing []string
}

func (e *MalformedPayloadError) Error() string {
	return "malformed payload: missing " + strings.Join(e.Missing, ", ")
}

// SenderMismatchError reports an envelope whose "from" field does not match
// the authenticated identity of the sending connection. Treated as a
// recoverable per-message policy violation, not connection-fatal, so a
// confused client can retry.
type SenderMismatchError struct {
	Claimed       domain.Identity
	Authenticated domain.Identity
}

func (e *SenderMismatchError) Error() string {
	return fmt.Sprintf("sender mismatch: envelope from %q, authenticated as %q", e.Claimed, e.Authenticated)
}

// RecipientOfflineError reports that the addressed identity has no live
// connection. An expected runtime condition, not an error worth logging at
// error severity: there is no queueing, so the sender is simply told.
type RecipientOfflineError struct {
	To domain.Identity
}

func (e *RecipientOfflineError) Error() string {
	return fmt.Sprintf("recipient %q is not online", e.To)
}
