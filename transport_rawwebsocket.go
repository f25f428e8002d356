package sockjs

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// serveRawWebsocket implements GET /websocket: a plain websocket with no
// SockJS framing. There is no {session} component in the URL, so each
// connection gets its own generated session id and talks to its Handler
// through raw text messages rather than the o/h/a/c alphabet.
func (d *Dispatcher) serveRawWebsocket(c *gin.Context) {
	if c.Request.Method != http.MethodGet {
		writeAppError(c.Writer, errMethodNotAllow)
		return
	}
	if !d.opts.websocketEnabled() {
		writeAppError(c.Writer, errTransportDisabl)
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		d.log.Debug().Err(err).Msg("raw websocket upgrade failed")
		return
	}
	defer conn.Close()

	sid := uuid.NewString()
	_, _, queue, aerr := d.manager.acquire(sid)
	if aerr != nil {
		return
	}

	done := make(chan struct{})
	go rawWSReadPump(d, sid, conn, done)
	rawWSWritePump(d, sid, conn, queue, done)
}

func rawWSReadPump(d *Dispatcher, sid string, conn *websocket.Conn, done chan struct{}) {
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
		if err := d.manager.deliver(sid, string(body)); err != nil {
			return
		}
	}
}

// rawWSWritePump writes only the raw payload of message-like frames;
// Open and Heartbeat carry no representation on the raw transport, so
// heartbeats are sent as websocket pings instead, and a Close frame ends
// the connection with a proper websocket close handshake rather than
// just dropping it.
func rawWSWritePump(d *Dispatcher, sid string, conn *websocket.Conn, queue *frameQueue, done chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			d.manager.release(sid, stateInterrupted())
			return
		case <-queue.readyCh():
			for _, f := range coalesceForEmit(queue.drain()) {
				if f.kind == frameClose {
					writeRawWSClose(conn)
					d.manager.release(sid, stateClosed())
					return
				}
				if !f.isMessageLike() {
					continue
				}
				for _, msg := range f.messages() {
					conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
					if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
						d.manager.release(sid, stateInterrupted())
						return
					}
				}
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				d.manager.release(sid, stateInterrupted())
				return
			}
		}
	}
}

// writeRawWSClose sends the websocket close handshake with the fixed
// Normal/1000 "Go away!" reason the raw transport always uses,
// regardless of which internal close code triggered it.
func writeRawWSClose(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, CloseGoAway.Reason)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
}
