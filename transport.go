package sockjs

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// heartbeatInterval is the fixed per-transport heartbeat cadence: every
// 5 seconds, while attached, a transport writes its own heartbeat frame.
const heartbeatInterval = 5 * time.Second

// frameWriter writes a single frame in a transport's wire format and
// reports how many bytes were written (for streaming transports' byte
// budget) and any write error (treated as peer disconnect).
type frameWriter func(f *Frame) (int, error)

// writeAndFlush writes body to w and flushes it if w supports
// http.Flusher, which every streaming/polling transport here relies on
// to make partial responses visible to the client immediately.
func writeAndFlush(w http.ResponseWriter, body string) (int, error) {
	n, err := w.Write([]byte(body))
	if err != nil {
		return n, err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return n, nil
}

func stateClosed() *SessionState {
	s := StateClosed
	return &s
}

func stateInterrupted() *SessionState {
	s := StateInterrupted
	return &s
}

// runSingleShot implements the event loop shared by the "one frame per
// response" transports (xhr, jsonp): acquire, emit exactly one batch of
// frames (or the New/Interrupted/Closed reaction), then release.
func (d *Dispatcher) runSingleShot(c *gin.Context, sid string, write frameWriter) {
	sess, initial, queue, err := d.manager.acquire(sid)
	if err != nil {
		write(closeFrame(CloseAcquired))
		return
	}

	switch initial {
	case StateNew:
		write(openFrame())
		d.manager.release(sid, nil)
		return
	case StateInterrupted:
		write(closeFrame(CloseInterrupted))
		d.manager.release(sid, nil)
		return
	case StateClosed:
		write(closeFrame(CloseGoAway))
		d.manager.release(sid, stateClosed())
		return
	}

	frames := coalesceForEmit(queue.drain())
	if len(frames) == 0 {
		select {
		case <-queue.readyCh():
			frames = coalesceForEmit(queue.drain())
		case <-time.After(heartbeatInterval):
			frames = []*Frame{heartbeatFrame()}
		case <-c.Request.Context().Done():
			d.manager.release(sid, stateInterrupted())
			return
		}
	}

	closing := false
	for _, f := range frames {
		if _, err := write(f); err != nil {
			d.manager.release(sid, stateInterrupted())
			return
		}
		if f.kind == frameClose {
			closing = true
			break
		}
	}
	_ = sess
	if closing {
		d.manager.release(sid, stateClosed())
		return
	}
	d.manager.release(sid, nil)
}

// runStreaming implements the event loop shared by the streaming
// transports (xhr_streaming, eventsource, htmlfile): acquire, emit the
// initial reaction, then loop writing sends/broadcasts and heartbeats
// until max_size is exceeded, a Close frame is sent, or the peer
// disconnects.
func (d *Dispatcher) runStreaming(c *gin.Context, sid string, maxSize int64, preludeBytes int, write frameWriter) {
	_, initial, queue, err := d.manager.acquire(sid)
	if err != nil {
		write(closeFrame(CloseAcquired))
		return
	}

	written := int64(preludeBytes)

	switch initial {
	case StateInterrupted:
		write(closeFrame(CloseInterrupted))
		d.manager.release(sid, nil)
		return
	case StateClosed:
		write(closeFrame(CloseGoAway))
		d.manager.release(sid, stateClosed())
		return
	case StateNew:
		n, err := write(openFrame())
		written += int64(n)
		if err != nil {
			d.manager.release(sid, stateInterrupted())
			return
		}
	}

	if frames := coalesceForEmit(queue.drain()); len(frames) > 0 {
		if done := d.emitStreamBatch(sid, frames, &written, maxSize, write); done {
			return
		}
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-queue.readyCh():
			frames := coalesceForEmit(queue.drain())
			if done := d.emitStreamBatch(sid, frames, &written, maxSize, write); done {
				return
			}
		case <-ticker.C:
			n, err := write(heartbeatFrame())
			written += int64(n)
			if err != nil {
				d.manager.release(sid, stateInterrupted())
				return
			}
		case <-c.Request.Context().Done():
			d.manager.release(sid, stateInterrupted())
			return
		}
		if maxSize > 0 && written >= maxSize {
			d.manager.release(sid, nil)
			return
		}
	}
}

// emitStreamBatch writes one coalesced batch of frames for a streaming
// transport. It returns true if the loop that called it should stop
// (a write failed, a Close frame was sent, or the byte budget was hit).
func (d *Dispatcher) emitStreamBatch(sid string, frames []*Frame, written *int64, maxSize int64, write frameWriter) bool {
	for _, f := range frames {
		n, err := write(f)
		*written += int64(n)
		if err != nil {
			d.manager.release(sid, stateInterrupted())
			return true
		}
		if f.kind == frameClose {
			d.manager.release(sid, stateClosed())
			return true
		}
		if maxSize > 0 && *written >= maxSize {
			d.manager.release(sid, nil)
			return true
		}
	}
	return false
}
