package sockjs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordingHandler captures every hook call for assertions.
type recordingHandler struct {
	BaseHandler
	opened   int
	acquired int
	released int
	closed   []CloseReason
	handled  []string
}

func (h *recordingHandler) Opened(*Session)   { h.opened++ }
func (h *recordingHandler) Acquired(*Session) { h.acquired++ }
func (h *recordingHandler) Released(*Session) { h.released++ }
func (h *recordingHandler) Closed(_ *Session, reason CloseReason) {
	h.closed = append(h.closed, reason)
}
func (h *recordingHandler) Handle(_ *Session, msg string) { h.handled = append(h.handled, msg) }

func newTestManager(h Handler) *Manager {
	m := NewManager(Options{SessionFactory: func() Handler { return h }})
	go m.Run()
	return m
}

func TestAcquireNewSessionFiresOpenedThenAcquired(t *testing.T) {
	h := &recordingHandler{}
	m := newTestManager(h)
	defer close(m.stopCh)

	sess, initial, queue, err := m.acquire("s1")
	require.NoError(t, err)
	require.Equal(t, StateNew, initial)
	require.Equal(t, "s1", sess.ID())
	require.NotNil(t, queue)
	require.Equal(t, 1, h.opened)
	require.Equal(t, 1, h.acquired)
}

func TestAcquireTwiceReturnsErrAcquired(t *testing.T) {
	h := &recordingHandler{}
	m := newTestManager(h)
	defer close(m.stopCh)

	_, _, _, err := m.acquire("s1")
	require.NoError(t, err)

	_, _, _, err = m.acquire("s1")
	require.ErrorIs(t, err, ErrAcquired)
}

func TestReleaseThenReacquireSeesRunningState(t *testing.T) {
	h := &recordingHandler{}
	m := newTestManager(h)
	defer close(m.stopCh)

	_, _, _, _ = m.acquire("s1")
	m.release("s1", nil)

	_, initial, _, err := m.acquire("s1")
	require.NoError(t, err)
	require.Equal(t, StateRunning, initial)
	require.Equal(t, 1, h.released)
}

func TestSendWhileDetachedBuffersThenFlushesOnAcquire(t *testing.T) {
	h := &recordingHandler{}
	m := newTestManager(h)
	defer close(m.stopCh)

	sess, _, _, _ := m.acquire("s1")
	m.release("s1", nil)

	sess.Send("m1")
	sess.Send("m2")

	_, _, queue, err := m.acquire("s1")
	require.NoError(t, err)

	frames := queue.drain()
	require.Len(t, frames, 1, "buffered sends should arrive coalesced into one frame")
	require.Equal(t, `a["m1","m2"]`, frames[0].Encode())
}

func TestSendWhileAttachedDeliversImmediately(t *testing.T) {
	h := &recordingHandler{}
	m := newTestManager(h)
	defer close(m.stopCh)

	sess, _, queue, err := m.acquire("s1")
	require.NoError(t, err)

	sess.Send("hello")

	select {
	case <-queue.readyCh():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame delivery")
	}
	frames := queue.drain()
	require.Len(t, frames, 1)
	require.Equal(t, `a["hello"]`, frames[0].Encode())
}

func TestBroadcastReachesEveryAttachedSession(t *testing.T) {
	h1, h2 := &recordingHandler{}, &recordingHandler{}
	m1 := NewManager(Options{SessionFactory: func() Handler { return h1 }})
	go m1.Run()
	defer close(m1.stopCh)

	_, _, q1, _ := m1.acquire("a")
	m1.sessions["b"] = &managerEntry{
		session: &Session{id: "b", handler: h2, manager: m1},
		record:  newSessionRecord("b"),
	}
	_, _, q2, err := m1.acquire("b")
	require.NoError(t, err)

	m1.broadcast(messageFrame("ping"))

	for _, q := range []*frameQueue{q1, q2} {
		select {
		case <-q.readyCh():
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for broadcast")
		}
		frames := q.drain()
		require.Len(t, frames, 1)
		require.Equal(t, `a["ping"]`, frames[0].Encode())
	}
}

func TestDeliverRoutesToHandle(t *testing.T) {
	h := &recordingHandler{}
	m := newTestManager(h)
	defer close(m.stopCh)

	_, _, _, _ = m.acquire("s1")
	require.NoError(t, m.deliver("s1", "hi"))
	require.Equal(t, []string{"hi"}, h.handled)
}

func TestDeliverUnknownSessionErrors(t *testing.T) {
	m := newTestManager(BaseHandler{})
	defer close(m.stopCh)

	err := m.deliver("missing", "hi")
	require.Error(t, err)
}

func TestIsAttachedReflectsAcquireRelease(t *testing.T) {
	h := &recordingHandler{}
	m := newTestManager(h)
	defer close(m.stopCh)

	require.False(t, m.isAttached("s1"))
	_, _, _, _ = m.acquire("s1")
	require.True(t, m.isAttached("s1"))
	m.release("s1", nil)
	require.False(t, m.isAttached("s1"))
}

func TestCloseEnqueuesGoAwayAndReleaseRemovesSession(t *testing.T) {
	h := &recordingHandler{}
	m := newTestManager(h)
	defer close(m.stopCh)

	sess, _, queue, _ := m.acquire("s1")
	sess.Close()

	select {
	case <-queue.readyCh():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for close frame")
	}
	frames := queue.drain()
	require.Len(t, frames, 1)
	require.Equal(t, frameClose, frames[0].kind)

	m.release("s1", stateClosed())
	// release returns once the manager has received the request; a query
	// afterwards is only answered after processRelease has finished.
	m.isAttached("s1")
	require.Equal(t, []CloseReason{ReasonNormal}, h.closed)

	_, ok := m.sessions["s1"]
	require.False(t, ok)
}

func TestSweepExpiresIdleDetachedSessions(t *testing.T) {
	h := &recordingHandler{}
	m := newTestManager(h)
	defer close(m.stopCh)

	_, _, _, _ = m.acquire("s1")
	m.release("s1", nil)

	reply := make(chan struct{})
	m.releaseCh <- &releaseRequest{sid: "does-not-exist"} // no-op, exercises the missing-entry branch
	close(reply)

	entry := m.sessions["s1"]
	entry.idleSince = time.Now().Add(-idleTimeout - time.Second)

	m.Sweep()

	_, ok := m.sessions["s1"]
	require.False(t, ok)
	require.Equal(t, []CloseReason{ReasonExpired}, h.closed)
}

func TestPanickingHandlerDoesNotCrashManager(t *testing.T) {
	m := newTestManager(BaseHandler{})
	defer close(m.stopCh)

	m.sessions["s1"] = &managerEntry{
		session: &Session{id: "s1", handler: panicHandler{}, manager: m},
		record:  newSessionRecord("s1"),
	}

	require.NoError(t, m.deliver("s1", "boom"))

	// The manager goroutine must still be alive and servicing requests.
	require.False(t, m.isAttached("s1"))
}

type panicHandler struct{ BaseHandler }

func (panicHandler) Handle(*Session, string) { panic("boom") }
