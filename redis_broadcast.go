package sockjs

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// redisBroadcastBridge fans Manager.broadcast frames out to every process
// sharing a SockJS endpoint behind a load balancer, using a Redis pub/sub
// channel. It is purely a transient relay: nothing is persisted, and
// disabling it (Options.Redis == nil) leaves Manager.broadcast's
// single-process behavior completely unchanged.
//
// Only frames carrying a plain message are bridged (Open/Heartbeat/Close
// are per-connection or per-process concerns and never cross the wire
// here); each bridged message is re-broadcast locally via the manager's
// normal broadcast path, so remote instances' sessions receive it exactly
// like a local Session.Broadcast call would deliver it.
type redisBroadcastBridge struct {
	client  *redis.Client
	channel string
	manager *Manager
	cancel  context.CancelFunc
}

func newRedisBroadcastBridge(opts *redis.Options, m *Manager) *redisBroadcastBridge {
	return &redisBroadcastBridge{
		client:  redis.NewClient(opts),
		channel: m.opts.RedisChannel,
		manager: m,
	}
}

func (b *redisBroadcastBridge) start() {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	sub := b.client.Subscribe(ctx, b.channel)
	ch := sub.Channel()

	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.manager.broadcastCh <- messageFrame(msg.Payload)
			}
		}
	}()
}

func (b *redisBroadcastBridge) stop() {
	if b.cancel != nil {
		b.cancel()
	}
	_ = b.client.Close()
}

// publish mirrors a locally originated broadcast frame out to other
// instances. Only Message/MessageVec frames carry application payloads
// worth replicating; other kinds are skipped to avoid remote instances
// re-closing or re-heartbeating each other's sessions.
func (b *redisBroadcastBridge) publish(f *Frame) {
	if !f.isMessageLike() {
		return
	}
	msgs := f.messages()
	// Fire-and-forget on its own goroutine: Redis I/O must never block
	// the manager's single event loop.
	go func() {
		for _, msg := range msgs {
			b.client.Publish(context.Background(), b.channel, msg)
		}
	}()
}
