package sockjs

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// wsWriteWait and wsPongWait are the write deadline and pong tolerance
// for the keepalive ping/pong loop.
const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// serveSockJSWebsocket implements /{server}/{session}/websocket: the
// SockJS frame alphabet carried over a real websocket connection.
func (d *Dispatcher) serveSockJSWebsocket(c *gin.Context, sid string) {
	if c.Request.Method != http.MethodGet {
		writeAppError(c.Writer, errMethodNotAllow)
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		d.log.Debug().Err(err).Str("sid", sid).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sess, initial, queue, aerr := d.manager.acquire(sid)
	if aerr != nil {
		writeWSFrame(conn, closeFrame(CloseAcquired))
		return
	}
	_ = sess

	switch initial {
	case StateInterrupted:
		writeWSFrame(conn, closeFrame(CloseInterrupted))
		d.manager.release(sid, nil)
		return
	case StateClosed:
		writeWSFrame(conn, closeFrame(CloseGoAway))
		d.manager.release(sid, stateClosed())
		return
	case StateNew:
		if err := writeWSFrame(conn, openFrame()); err != nil {
			d.manager.release(sid, stateInterrupted())
			return
		}
	}

	for _, f := range coalesceForEmit(queue.drain()) {
		if err := writeWSFrame(conn, f); err != nil {
			d.manager.release(sid, stateInterrupted())
			return
		}
	}

	done := make(chan struct{})
	go wsReadPump(d, sid, conn, done)
	wsWritePump(d, sid, conn, queue, done)
}

// wsReadPump delivers inbound frames to the session's Handle hook. Each
// text message is a JSON-encoded single string; a JSON array of strings
// is also accepted, matching the xhr_send wire shape, for symmetry with
// the polling transports.
func wsReadPump(d *Dispatcher, sid string, conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})
	for {
		_, body, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if len(body) == 0 {
			continue
		}
		msgs, ok := decodeWSPayload(body)
		if !ok {
			writeWSFrame(conn, closeFrame(closeInvalidJSON))
			return
		}
		for _, msg := range msgs {
			if err := d.manager.deliver(sid, msg); err != nil {
				return
			}
		}
	}
}

// wsWritePump drains sid's queue onto the connection until the peer
// read loop ends or a Close frame is sent.
func wsWritePump(d *Dispatcher, sid string, conn *websocket.Conn, queue *frameQueue, done chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			d.manager.release(sid, stateInterrupted())
			return
		case <-queue.readyCh():
			for _, f := range coalesceForEmit(queue.drain()) {
				if err := writeWSFrame(conn, f); err != nil {
					d.manager.release(sid, stateInterrupted())
					return
				}
				if f.kind == frameClose {
					d.manager.release(sid, stateClosed())
					return
				}
			}
		case <-ticker.C:
			if err := writeWSFrame(conn, heartbeatFrame()); err != nil {
				d.manager.release(sid, stateInterrupted())
				return
			}
		}
	}
}

func writeWSFrame(conn *websocket.Conn, f *Frame) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteMessage(websocket.TextMessage, []byte(f.Encode()))
}

func decodeWSPayload(body []byte) ([]string, bool) {
	var arr []string
	if err := json.Unmarshal(body, &arr); err == nil {
		return arr, true
	}
	var single string
	if err := json.Unmarshal(body, &single); err == nil {
		return []string{single}, true
	}
	return nil, false
}
