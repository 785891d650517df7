package feed

import (
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"storefront/pkg/common/domain"
	"storefront/pkg/domain/model"
	"storefront/pkg/domain/service"
)

const defaultBuffer = 16

// Update is one order status change as pushed to a subscriber.
type Update struct {
	OrderID uuid.UUID           `json:"orderId"`
	Status  model.OrderStatus   `json:"status"`
	Track   service.StatusTrack `json:"track"`
	At      time.Time           `json:"at"`
}

// Feed is the in-process change feed for order statuses, keyed by user. It is an event
// subscriber: hand it to the dispatcher and it forwards OrderStatusChanged events.
type Feed struct {
	buffer int

	mu          sync.Mutex
	nextID      int
	subscribers map[uuid.UUID]map[int]chan Update
}

func New(buffer int) *Feed {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Feed{
		buffer:      buffer,
		subscribers: make(map[uuid.UUID]map[int]chan Update),
	}
}

// Subscribe registers for a user's order updates. The returned func must be called to
// release the subscription; it closes the channel and is safe to call more than once.
func (f *Feed) Subscribe(userID uuid.UUID) (<-chan Update, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	ch := make(chan Update, f.buffer)
	if f.subscribers[userID] == nil {
		f.subscribers[userID] = make(map[int]chan Update)
	}
	f.subscribers[userID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { f.unsubscribe(userID, id) })
	}
}

func (f *Feed) Dispatch(event domain.Event) error {
	changed, ok := event.(model.OrderStatusChanged)
	if !ok {
		return nil
	}
	f.Publish(changed.UserID, Update{
		OrderID: changed.OrderID,
		Status:  changed.NewStatus,
		Track:   service.Present(string(changed.NewStatus)),
		At:      time.Now().UTC(),
	})
	return nil
}

// Publish never blocks: a subscriber whose buffer is full misses the update.
func (f *Feed) Publish(userID uuid.UUID, update Update) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, ch := range f.subscribers[userID] {
		select {
		case ch <- update:
		default:
			log.WithFields(log.Fields{"user": userID, "subscription": id, "order": update.OrderID}).
				Warn("dropping order update for slow subscriber")
		}
	}
}

func (f *Feed) Subscribers(userID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers[userID])
}

func (f *Feed) unsubscribe(userID uuid.UUID, id int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs := f.subscribers[userID]
	if ch, ok := subs[id]; ok {
		close(ch)
		delete(subs, id)
	}
	if len(subs) == 0 {
		delete(f.subscribers, userID)
	}
}
