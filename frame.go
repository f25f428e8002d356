package sockjs

import (
	"encoding/json"
	"fmt"
)

// frameKind tags the SockJS frame alphabet: Open, Heartbeat, Message,
// MessageVec, MessageBlob and Close.
type frameKind uint8

const (
	frameOpen frameKind = iota
	frameHeartbeat
	frameMessage
	frameMessageVec
	frameMessageBlob
	frameClose
)

// Frame is a single unit of the SockJS frame alphabet. A Frame is
// immutable once constructed, which is what lets Manager.broadcast share
// a single *Frame across every session's buffer without copying.
type Frame struct {
	kind frameKind

	message     string   // frameMessage
	vecMessages []string // frameMessageVec
	blob        []byte   // frameMessageBlob, pre-encoded JSON array body

	closeCode   uint32 // frameClose
	closeReason string // frameClose
}

func openFrame() *Frame      { return &Frame{kind: frameOpen} }
func heartbeatFrame() *Frame { return &Frame{kind: frameHeartbeat} }

func messageFrame(msg string) *Frame {
	return &Frame{kind: frameMessage, message: msg}
}

func messageVecFrame(msgs []string) *Frame {
	return &Frame{kind: frameMessageVec, vecMessages: msgs}
}

func messageBlobFrame(b []byte) *Frame {
	return &Frame{kind: frameMessageBlob, blob: b}
}

func closeFrame(cc CloseCode) *Frame {
	return &Frame{kind: frameClose, closeCode: cc.Code, closeReason: cc.Reason}
}

// isMessageLike reports whether the frame participates in coalescing runs.
func (f *Frame) isMessageLike() bool {
	return f.kind == frameMessage || f.kind == frameMessageVec
}

// messages flattens a message-like frame back into its constituent
// strings, used when merging adjacent frames during coalescing.
func (f *Frame) messages() []string {
	switch f.kind {
	case frameMessage:
		return []string{f.message}
	case frameMessageVec:
		return f.vecMessages
	default:
		return nil
	}
}

// Encode renders the frame's wire body, without any transport-specific
// terminator (transports append "\n", wrap in "data: ...\r\n\r\n", etc).
func (f *Frame) Encode() string {
	switch f.kind {
	case frameOpen:
		return "o"
	case frameHeartbeat:
		return "h"
	case frameMessage:
		b, _ := json.Marshal([]string{f.message})
		return "a" + string(b)
	case frameMessageVec:
		b, _ := json.Marshal(f.vecMessages)
		return "a" + string(b)
	case frameMessageBlob:
		return "a" + string(f.blob)
	case frameClose:
		reason, _ := json.Marshal(f.closeReason)
		return fmt.Sprintf("c[%d,%s]", f.closeCode, reason)
	default:
		return ""
	}
}

// coalesceForEmit merges consecutive message-like frames into a single
// MessageVec frame. Non-message frames (Open, Heartbeat, Close) break a
// coalescing run. This is applied at flush time rather than at append
// time; merging at flush avoids doing the work for frames that are
// delivered one at a time and never batched.
func coalesceForEmit(frames []*Frame) []*Frame {
	if len(frames) == 0 {
		return frames
	}
	out := make([]*Frame, 0, len(frames))
	var run []string
	flushRun := func() {
		if len(run) == 0 {
			return
		}
		out = append(out, messageVecFrame(run))
		run = nil
	}
	for _, f := range frames {
		if f.isMessageLike() {
			run = append(run, f.messages()...)
			continue
		}
		flushRun()
		out = append(out, f)
	}
	flushRun()
	return out
}
