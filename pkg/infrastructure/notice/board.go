package notice

import (
	"sync"
	"time"

	"storefront/pkg/common/domain"
)

const defaultLimit = 20

type Notice struct {
	Type    string    `json:"type"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Board queues user-facing messages per session until the client drains them. Only the
// newest limit notices are kept for a session.
type Board struct {
	limit int

	mu      sync.Mutex
	notices map[string][]Notice
}

func NewBoard(limit int) *Board {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Board{limit: limit, notices: make(map[string][]Notice)}
}

func (b *Board) Dispatch(event domain.Event) error {
	n, ok := event.(domain.Notice)
	if !ok || n.SessionID() == "" {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	queue := append(b.notices[n.SessionID()], Notice{
		Type:    n.Type(),
		Message: n.Message(),
		At:      time.Now().UTC(),
	})
	if len(queue) > b.limit {
		queue = queue[len(queue)-b.limit:]
	}
	b.notices[n.SessionID()] = queue
	return nil
}

// Drain returns and forgets everything queued for the session, oldest first.
func (b *Board) Drain(sessionID string) []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	queue := b.notices[sessionID]
	delete(b.notices, sessionID)
	if queue == nil {
		return []Notice{}
	}
	return queue
}
