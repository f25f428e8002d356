package sockjs

// Handler is the set of hooks an embedding application implements to
// react to a session's lifecycle and inbound peer traffic. A zero-value
// BaseHandler satisfies Handler with no-ops, so embedders only need to
// implement the hooks they care about.
type Handler interface {
	// Opened runs exactly once, when a brand new session is created
	// (before the first transport attaches).
	Opened(s *Session)
	// Acquired runs each time a transport attaches to the session
	// (including the very first attach, after Opened).
	Acquired(s *Session)
	// Released runs when a transport detaches without closing the
	// session (e.g. a polling transport finishing its batch).
	Released(s *Session)
	// Closed runs exactly once, when the session is permanently removed:
	// on user-initiated close, peer interruption, or idle expiry.
	Closed(s *Session, reason CloseReason)
	// Handle runs for every inbound peer message, in the order the peer
	// sent them.
	Handle(s *Session, msg string)
}

// BaseHandler provides no-op implementations of every Handler hook.
// Embed it to implement only the hooks that matter.
type BaseHandler struct{}

func (BaseHandler) Opened(*Session)             {}
func (BaseHandler) Acquired(*Session)           {}
func (BaseHandler) Released(*Session)           {}
func (BaseHandler) Closed(*Session, CloseReason) {}
func (BaseHandler) Handle(*Session, string)     {}

// SessionFactory constructs the embedder's Handler for a brand new
// session id. Called exactly once per sid.
type SessionFactory func() Handler

// Session is the application-facing handle for one SockJS session: it is
// the *s argument every Handler hook receives, and the object the
// embedder calls Send/Broadcast/Close/ID/Connected on.
//
// A Session's lifetime equals its record's lifetime in the manager; the
// manager exclusively owns both. A Session never holds a transport
// directly, only a narrow capability back into the manager (sendCh for
// Send and Close, broadcastCh for Broadcast, queryCh for Connected),
// which is what breaks the Session <-> Manager <->
// Transport reference cycle.
type Session struct {
	id      string
	handler Handler
	manager *Manager
}

// ID returns the session's id, as supplied by the client URL.
func (s *Session) ID() string { return s.id }

// Connected reports whether a transport currently has this session
// checked out.
func (s *Session) Connected() bool {
	return s.manager.isAttached(s.id)
}

// Send enqueues a Message frame carrying msg. If a transport is attached
// it is delivered immediately; otherwise it joins the session's buffer
// and is coalesced with any adjacent buffered messages at flush time.
func (s *Session) Send(msg string) {
	s.manager.enqueueSend(s.id, messageFrame(msg))
}

// Broadcast asks the manager to deliver msg to every live session,
// including this one.
func (s *Session) Broadcast(msg string) {
	s.manager.broadcast(messageFrame(msg))
}

// Close enqueues a GoAway close frame through the normal send path. The
// attached transport (if any), on observing the Close frame, writes it
// and terminates, which triggers a Release with state Closed.
func (s *Session) Close() {
	s.manager.enqueueSend(s.id, closeFrame(CloseGoAway))
}
