// Package sockjs implements the server side of the SockJS protocol
// (v0.3.3): a transport-abstraction layer that presents a single
// bidirectional, message-oriented Session to application code while
// tolerating browsers and intermediaries that cannot sustain a raw
// WebSocket.
//
// Architecture:
//   - Manager: process-wide registry of live sessions. Owns the
//     session map exclusively; all mutation happens on its Run goroutine.
//   - Session: the application-facing handle. Exposes Send, Broadcast,
//     Close, ID and Connected to embedder code, and dispatches the
//     embedder's Handler hooks (Opened/Acquired/Released/Closed/Handle).
//   - Transports: one HTTP (or WebSocket) handler per SockJS transport
//     name. Each acquires a session from the manager, runs an event loop
//     draining the per-attachment frame queue, and releases the session
//     on teardown.
//   - Dispatcher: the gin-based URL router implementing the SockJS
//     endpoint family (greeting, /info, /iframe*.html, /websocket,
//     /{server}/{session}/{transport}).
//
// Message flow: HTTP request -> Dispatcher -> Transport -> SessionManager
// (Acquire by id) -> SessionRecord. Outbound frames from application code
// flow Session -> SessionManager -> SessionRecord buffer -> attached
// Transport -> client. A cron-scheduled sweep expires idle sessions.
//
// Concurrency: the manager, each session's bookkeeping, and each
// transport's event loop communicate by channel, plus one per-attachment
// frame queue (an unbounded FIFO guarded by its own mutex) that the
// manager pushes to and the attached transport drains. Transports never
// touch session state directly. See Manager for the single goroutine
// that owns all session state.
package sockjs
