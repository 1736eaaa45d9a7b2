// Package relay implements the connection/session core of the sealchat
// server: the registry of live connections, the pairing table, the forwarding
// engine, and the per-connection session loop.
//
// The relay is blind. It validates envelope structure and addressing, checks
// that the claimed sender matches the authenticated identity, and otherwise
// forwards ciphertext verbatim between paired online clients. Undelivered
// payloads are dropped, never queued; delivered payloads are journaled to the
// message store on a best-effort basis, decoupled from the delivery outcome.
//
// Shared state is limited to the Registry and Pairing tables, each guarded by
// a single mutex. Sessions never hold references to each other; a sender
// reaches its recipient only through a registry lookup.
package relay
