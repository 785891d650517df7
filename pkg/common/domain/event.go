package domain

type Event interface {
	Type() string
}

type EventDispatcher interface {
	Dispatch(event Event) error
}

// Notice is implemented by events that should reach the shopper as a short message.
type Notice interface {
	Event
	SessionID() string
	Message() string
}
