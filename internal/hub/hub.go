// Package hub fans out match events to live subscribers. One actor
// goroutine owns the subscriber registry, so subscription and publication
// are totally ordered and no mutex is needed.
package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/michelutke/volleyball-scoreboard/internal/types"
)

// GlobalScope subscribes to events of every match. Real match ids are
// serial and start at 1, so 0 never collides.
const GlobalScope uint = 0

type hubMsg interface{ isHubMsg() }

type subscribe struct {
	scope uint
	sink  chan types.SSEEvent
	reply chan uint64
}

type unsubscribe struct {
	scope uint
	id    uint64
}

type publish struct {
	matchID uint
	event   types.SSEEvent
}

type shutdown struct{}

func (subscribe) isHubMsg()   {}
func (unsubscribe) isHubMsg() {}
func (publish) isHubMsg()     {}
func (shutdown) isHubMsg()    {}

// Hub delivers every published event to the subscribers of its match and to
// every global-scope subscriber. There is no buffering or replay: an event
// published before a subscription never reaches it.
type Hub struct {
	inbox  chan hubMsg
	subs   map[uint]map[uint64]chan types.SSEEvent
	nextID uint64
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan hubMsg, 64),
		subs:   make(map[uint]map[uint64]chan types.SSEEvent),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
	go h.loop()
	return h
}

// Subscribe registers sink for the given scope (a match id, or GlobalScope
// for all matches) and returns an idempotent cancel func. After the hub has
// processed the cancellation no further event is delivered to sink, and the
// hub closes it.
func (h *Hub) Subscribe(scope uint, sink chan types.SSEEvent) (cancel func()) {
	reply := make(chan uint64, 1)
	h.send(subscribe{scope: scope, sink: sink, reply: reply})

	select {
	case id := <-reply:
		return func() { h.send(unsubscribe{scope: scope, id: id}) }
	case <-h.ctx.Done():
		return func() {}
	}
}

// Publish delivers event to every subscriber of matchID and every global
// subscriber. A subscriber whose sink is full is dropped, not retried; the
// mutation behind the event is already durable, so a lost delivery only
// costs that one viewer its connection.
func (h *Hub) Publish(matchID uint, event types.SSEEvent) {
	h.send(publish{matchID: matchID, event: event})
}

// Shutdown closes every sink and stops the actor.
func (h *Hub) Shutdown() {
	h.send(shutdown{})
}

func (h *Hub) send(m hubMsg) {
	select {
	case h.inbox <- m:
	case <-h.ctx.Done():
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case subscribe:
				h.nextID++
				id := h.nextID
				if h.subs[msg.scope] == nil {
					h.subs[msg.scope] = make(map[uint64]chan types.SSEEvent)
				}
				h.subs[msg.scope][id] = msg.sink
				msg.reply <- id

			case unsubscribe:
				if sink, ok := h.subs[msg.scope][msg.id]; ok {
					delete(h.subs[msg.scope], msg.id)
					if len(h.subs[msg.scope]) == 0 {
						delete(h.subs, msg.scope)
					}
					close(sink)
				}

			case publish:
				h.fanout(msg.matchID, msg.event)
				if msg.matchID != GlobalScope {
					h.fanout(GlobalScope, msg.event)
				}

			case shutdown:
				h.closeAll()
				h.cancel()
				return
			}
		}
	}
}

func (h *Hub) fanout(scope uint, event types.SSEEvent) {
	for id, sink := range h.subs[scope] {
		select {
		case sink <- event:
		default:
			// Subscriber can't keep up - drop it.
			delete(h.subs[scope], id)
			close(sink)
			h.log.Warn("dropping slow subscriber", zap.Uint("scope", scope), zap.Uint64("id", id))
		}
	}
}

func (h *Hub) closeAll() {
	for scope, sinks := range h.subs {
		for id, sink := range sinks {
			close(sink)
			delete(sinks, id)
		}
		delete(h.subs, scope)
	}
}
