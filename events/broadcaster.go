package events

import "sync"

// Subscription is one consumer's channel of Events. Filtering by Kind
// happens at subscribe time; an empty Kinds set receives everything.
type Subscription struct {
	Kinds   map[Kind]bool
	Channel chan Event
}

// Broadcaster fans out Events to every matching Subscription over an
// internal goroutine loop, the same register/unregister/broadcast
// shape a GUI-facing session wrapper would use, minus the session-ID
// and WebSocket framing a single-process host has no use for.
type Broadcaster struct {
	mu            sync.RWMutex
	subscriptions map[*Subscription]bool
	broadcast     chan Event
	register      chan *Subscription
	unregister    chan *Subscription
	done          chan struct{}
}

// NewBroadcaster creates and starts a new event broadcaster.
func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		subscriptions: make(map[*Subscription]bool),
		broadcast:     make(chan Event, 256),
		register:      make(chan *Subscription),
		unregister:    make(chan *Subscription),
		done:          make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broadcaster) run() {
	for {
		select {
		case sub := <-b.register:
			b.mu.Lock()
			b.subscriptions[sub] = true
			b.mu.Unlock()

		case sub := <-b.unregister:
			b.mu.Lock()
			if b.subscriptions[sub] {
				delete(b.subscriptions, sub)
				close(sub.Channel)
			}
			b.mu.Unlock()

		case ev := <-b.broadcast:
			b.mu.RLock()
			for sub := range b.subscriptions {
				if len(sub.Kinds) > 0 && !sub.Kinds[ev.Kind] {
					continue
				}
				select {
				case sub.Channel <- ev:
				default:
					// slow consumer; drop rather than block the CPU loop
				}
			}
			b.mu.RUnlock()

		case <-b.done:
			b.mu.Lock()
			for sub := range b.subscriptions {
				close(sub.Channel)
			}
			b.subscriptions = make(map[*Subscription]bool)
			b.mu.Unlock()
			return
		}
	}
}

// Subscribe returns a new Subscription. An empty kinds set matches
// every event kind.
func (b *Broadcaster) Subscribe(kinds ...Kind) *Subscription {
	kindSet := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		kindSet[k] = true
	}
	sub := &Subscription{Kinds: kindSet, Channel: make(chan Event, 64)}
	b.register <- sub
	return sub
}

// Unsubscribe removes sub and closes its channel.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.unregister <- sub
}

// Publish sends ev to every matching subscription. Non-blocking: a
// full internal queue drops the event rather than stall the caller.
func (b *Broadcaster) Publish(ev Event) {
	select {
	case b.broadcast <- ev:
	default:
	}
}

// Close shuts the broadcaster down and closes every subscription.
func (b *Broadcaster) Close() {
	close(b.done)
}

// SubscriptionCount returns the number of active subscriptions.
func (b *Broadcaster) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}
