package sockjs

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// idleTimeout and sweepSchedule are fixed by the protocol: sessions idle
// for >= 10s are expired, checked every 10s.
const idleTimeout = 10 * time.Second

const sweepSchedule = "*/10 * * * * *" // cron.WithSeconds: every 10s

// managerEntry is the manager's bookkeeping for one live session: the
// application-facing Session, the mutable record, and (while detached)
// the time it became idle.
type managerEntry struct {
	session   *Session
	record    *sessionRecord
	idleSince time.Time
}

type acquireRequest struct {
	sid   string
	reply chan acquireReply
}

type acquireReply struct {
	session      *Session
	initialState SessionState
	queue        *frameQueue
	err          *AppError
}

type releaseRequest struct {
	sid      string
	newState *SessionState // nil: keep current state (normal detach)
}

type sendRequest struct {
	sid   string
	frame *Frame
}

type deliverRequest struct {
	sid   string
	msg   string
	reply chan *AppError
}

type attachedQuery struct {
	sid   string
	reply chan bool
}

// Manager is the process-wide session registry. It is the sole owner of
// the session map: every read and write happens on the goroutine
// started by Start, driven by a select loop over typed channels
// covering the session manager's full operation set (acquire, release,
// send, deliver, broadcast, sweep).
type Manager struct {
	opts Options
	log  zerolog.Logger

	sessions map[string]*managerEntry

	acquireCh   chan *acquireRequest
	releaseCh   chan *releaseRequest
	sendCh      chan *sendRequest
	deliverCh   chan *deliverRequest
	broadcastCh chan *Frame
	queryCh     chan *attachedQuery
	sweepCh     chan struct{}
	manualSweepCh chan chan struct{}
	stopCh      chan struct{}

	cron        *cron.Cron
	redisBridge *redisBroadcastBridge
}

// NewManager constructs a Manager. Call Start to begin processing.
func NewManager(opts Options) *Manager {
	opts.setDefaults()
	m := &Manager{
		opts:        opts,
		log:         managerLog(),
		sessions:    make(map[string]*managerEntry),
		acquireCh:   make(chan *acquireRequest),
		releaseCh:   make(chan *releaseRequest),
		sendCh:      make(chan *sendRequest, 64),
		deliverCh:   make(chan *deliverRequest),
		broadcastCh: make(chan *Frame, 64),
		queryCh:     make(chan *attachedQuery),
		sweepCh:     make(chan struct{}, 1),
		manualSweepCh: make(chan chan struct{}),
		stopCh:      make(chan struct{}),
	}
	if opts.Redis != nil {
		m.redisBridge = newRedisBroadcastBridge(opts.Redis, m)
	}
	return m
}

// Start launches the manager's Run goroutine and the cron-scheduled
// expiry sweep.
func (m *Manager) Start() {
	go m.Run()

	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(sweepSchedule, func() {
		select {
		case m.sweepCh <- struct{}{}:
		default:
		}
	})
	if err != nil {
		// The schedule literal above is a constant and always parses;
		// this guards against a future typo rather than a runtime condition.
		m.log.Error().Err(err).Msg("failed to schedule expiry sweep")
	}
	c.Start()
	m.cron = c

	if m.redisBridge != nil {
		m.redisBridge.start()
	}
}

// Stop halts the manager's goroutine and the cron scheduler.
func (m *Manager) Stop() {
	if m.cron != nil {
		m.cron.Stop()
	}
	if m.redisBridge != nil {
		m.redisBridge.stop()
	}
	close(m.stopCh)
}

// Run is the manager's single-threaded event loop. It is exported so
// callers that want to manage the goroutine lifecycle themselves (rather
// than via Start/Stop) can invoke it directly.
func (m *Manager) Run() {
	for {
		select {
		case req := <-m.acquireCh:
			m.processAcquire(req)
		case req := <-m.releaseCh:
			m.processRelease(req)
		case req := <-m.sendCh:
			m.processSend(req)
		case req := <-m.deliverCh:
			m.processDeliver(req)
		case f := <-m.broadcastCh:
			m.processBroadcast(f)
		case req := <-m.queryCh:
			entry, ok := m.sessions[req.sid]
			req.reply <- ok && entry.record.attached != nil
		case <-m.sweepCh:
			m.processSweep()
		case reply := <-m.manualSweepCh:
			m.processSweep()
			close(reply)
		case <-m.stopCh:
			return
		}
	}
}

// acquire checks out sid for the calling transport. It returns
// ErrAcquired without mutating any state if another transport already
// holds the session.
func (m *Manager) acquire(sid string) (*Session, SessionState, *frameQueue, error) {
	reply := make(chan acquireReply, 1)
	m.acquireCh <- &acquireRequest{sid: sid, reply: reply}
	r := <-reply
	if r.err != nil {
		return nil, 0, nil, r.err
	}
	return r.session, r.initialState, r.queue, nil
}

func (m *Manager) processAcquire(req *acquireRequest) {
	// Sends already queued when this request arrived are applied first, so
	// they land in the buffer that this attach flushes.
	for n := len(m.sendCh); n > 0; n-- {
		m.processSend(<-m.sendCh)
	}

	entry, exists := m.sessions[req.sid]
	if !exists {
		handler := m.opts.SessionFactory()
		sess := &Session{id: req.sid, handler: handler, manager: m}
		entry = &managerEntry{session: sess, record: newSessionRecord(req.sid)}
		m.sessions[req.sid] = entry
		m.safeCall(req.sid, func() { handler.Opened(sess) })
	} else if entry.record.attached != nil {
		req.reply <- acquireReply{err: ErrAcquired}
		return
	}

	initial := entry.record.state
	if initial == StateNew {
		entry.record.state = StateRunning
	}

	q := newFrameQueue()
	entry.record.attached = q
	entry.idleSince = time.Time{}

	if len(entry.record.buffer) > 0 {
		for _, f := range coalesceForEmit(entry.record.buffer) {
			q.push(f)
		}
		entry.record.buffer = nil
	}

	m.safeCall(req.sid, func() { entry.session.handler.Acquired(entry.session) })

	req.reply <- acquireReply{session: entry.session, initialState: initial, queue: q}
}

// release hands sid back to the manager as detached. newState, if
// non-nil, overrides the record's state before the manager decides
// whether to notify Released, Closed or Closed(Interrupted).
func (m *Manager) release(sid string, newState *SessionState) {
	m.releaseCh <- &releaseRequest{sid: sid, newState: newState}
}

func (m *Manager) processRelease(req *releaseRequest) {
	entry, ok := m.sessions[req.sid]
	if !ok {
		return
	}
	if req.newState != nil {
		entry.record.state = *req.newState
	}
	if entry.record.attached != nil {
		entry.record.attached.close()
	}
	entry.record.attached = nil

	switch entry.record.state {
	case StateClosed:
		delete(m.sessions, req.sid)
		m.safeCall(req.sid, func() { entry.session.handler.Closed(entry.session, ReasonNormal) })
	case StateInterrupted:
		delete(m.sessions, req.sid)
		m.safeCall(req.sid, func() { entry.session.handler.Closed(entry.session, ReasonInterrupted) })
	default:
		entry.idleSince = time.Now()
		m.safeCall(req.sid, func() { entry.session.handler.Released(entry.session) })
	}
}

// enqueueSend is Session.Send/Close's entry point into the manager.
func (m *Manager) enqueueSend(sid string, f *Frame) {
	m.sendCh <- &sendRequest{sid: sid, frame: f}
}

func (m *Manager) processSend(req *sendRequest) {
	entry, ok := m.sessions[req.sid]
	if !ok {
		return
	}
	m.appendAndFlush(entry, req.frame)
}

// deliver routes an inbound peer message (posted via a _send companion
// transport, or read off a websocket) to the session's Handle hook.
func (m *Manager) deliver(sid, msg string) error {
	reply := make(chan *AppError, 1)
	m.deliverCh <- &deliverRequest{sid: sid, msg: msg, reply: reply}
	if err := <-reply; err != nil {
		return err
	}
	return nil
}

func (m *Manager) processDeliver(req *deliverRequest) {
	entry, ok := m.sessions[req.sid]
	if !ok {
		req.reply <- errSessionNotFound
		return
	}
	m.safeCall(req.sid, func() { entry.session.handler.Handle(entry.session, req.msg) })
	req.reply <- nil
}

// broadcast fans frame out to every live session: attached sessions get
// it pushed directly onto their frame queue (preserving FIFO order
// relative to their own sends, since both funnel through the same
// manager goroutine and the same queue); detached sessions buffer it.
func (m *Manager) broadcast(f *Frame) {
	m.broadcastCh <- f
}

func (m *Manager) processBroadcast(f *Frame) {
	for _, entry := range m.sessions {
		m.appendAndFlush(entry, f)
	}
	if m.redisBridge != nil {
		m.redisBridge.publish(f)
	}
}

// appendAndFlush appends f to entry's buffer and, if a transport is
// attached, immediately coalesces and drains the buffer into its queue.
func (m *Manager) appendAndFlush(entry *managerEntry, f *Frame) {
	entry.record.buffer = append(entry.record.buffer, f)
	if entry.record.attached == nil {
		return
	}
	for _, cf := range coalesceForEmit(entry.record.buffer) {
		entry.record.attached.push(cf)
	}
	entry.record.buffer = nil
}

// isAttached answers Session.Connected.
func (m *Manager) isAttached(sid string) bool {
	reply := make(chan bool, 1)
	m.queryCh <- &attachedQuery{sid: sid, reply: reply}
	return <-reply
}

// Sweep runs one idle-expiry pass synchronously, independent of the
// cron schedule. Exported so tests can exercise expiry without waiting
// on wall-clock ticks.
func (m *Manager) Sweep() {
	reply := make(chan struct{})
	m.manualSweepCh <- reply
	<-reply
}

func (m *Manager) processSweep() {
	now := time.Now()
	for sid, entry := range m.sessions {
		if entry.record.attached != nil || entry.idleSince.IsZero() {
			continue
		}
		if now.Sub(entry.idleSince) >= idleTimeout {
			delete(m.sessions, sid)
			m.safeCall(sid, func() { entry.session.handler.Closed(entry.session, ReasonExpired) })
		}
	}
}

// safeCall isolates a Handler hook invocation: a panicking hook is
// logged and swallowed rather than taking down the manager goroutine.
func (m *Manager) safeCall(sid string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Str("sid", sid).Interface("panic", r).Msg("session handler panicked")
		}
	}()
	fn()
}
