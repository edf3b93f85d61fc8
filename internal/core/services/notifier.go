package services

import (
	"sync"

	"github.com/google/uuid"
)

// EventType names what changed in the session state.
type EventType string

const (
	EventLogin       EventType = "login"
	EventLogout      EventType = "logout"
	EventPurchase    EventType = "purchase"
	EventShop        EventType = "shop"
	EventGenerator   EventType = "generator"
	EventTrade       EventType = "trade"
	EventAccrual     EventType = "accrual"
	EventAchievement EventType = "achievement"
)

// Event is a state-change notification pushed to subscribers so a view layer
// can re-render without polling.
type Event struct {
	Type     EventType
	Identity string
	Coins    int64
	Gems     int64
	Level    int
	XP       int
	// Detail carries the id most relevant to the event: a track id for
	// purchases and trades, an achievement id for unlocks.
	Detail string
}

// Notifier is an in-process publish/subscribe channel for session events.
// Publishing never blocks: a subscriber that falls behind loses events rather
// than stalling the economy.
type Notifier struct {
	mu   sync.RWMutex
	subs map[string]chan Event
}

// NewNotifier returns an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]chan Event)}
}

// Subscribe registers a new subscriber and returns its id and event channel.
func (n *Notifier) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, 16)

	n.mu.Lock()
	n.subs[id] = ch
	n.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (n *Notifier) Unsubscribe(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ch, ok := n.subs[id]; ok {
		close(ch)
		delete(n.subs, id)
	}
}

// Publish delivers the event to every subscriber that has buffer room.
func (n *Notifier) Publish(e Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, ch := range n.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
