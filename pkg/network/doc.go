// Package network implements the Veltalk connection core: a supervisor
// that owns one WebSocket at a time and keeps it alive across unreliable
// networks.
//
// A Supervisor walks the connection state machine
// (Disconnected -> Connecting -> Connected -> Authenticating ->
// Authenticated -> Ready), rotating through its endpoint pool on each
// attempt and reconnecting with capped exponential backoff plus jitter.
// Liveness is probed on a fixed interval with a short literal payload
// and a transport ping; a missed pong deadline forces the
// dead-connection path, which fires connection_lost exactly once and
// schedules exactly one reconnect.
//
// Control traffic is text frames of the form "tag,<json>" matched to
// their requests by the Correlator. Application traffic is binary
// frames "tag," + metric + flags + blob, sealed by the session cipher
// and decoded as wire nodes. Application sends queue in the
// OutboundScheduler and drain at a bounded rate once the connection is
// Ready.
//
// Consumers observe the supervisor through Subscribe, which returns an
// unsubscribe handle. There are no global listener lists and no global
// logger; every component takes its zerolog.Logger at construction.
package network
