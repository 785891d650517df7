package event

import (
	log "github.com/sirupsen/logrus"

	"storefront/pkg/common/domain"
)

// Dispatcher hands every event to each subscriber in registration order. A failing
// subscriber is logged and does not stop the others; the first error is returned.
type Dispatcher struct {
	subscribers []domain.EventDispatcher
}

func NewDispatcher(subscribers ...domain.EventDispatcher) *Dispatcher {
	return &Dispatcher{subscribers: subscribers}
}

func (d *Dispatcher) Subscribe(subscriber domain.EventDispatcher) {
	d.subscribers = append(d.subscribers, subscriber)
}

func (d *Dispatcher) Dispatch(event domain.Event) error {
	log.WithField("event", event.Type()).Debug("dispatching event")

	var first error
	for _, subscriber := range d.subscribers {
		if err := subscriber.Dispatch(event); err != nil {
			log.WithError(err).WithField("event", event.Type()).Error("event subscriber failed")
			if first == nil {
				first = err
			}
		}
	}
	return first
}
