package notify

import (
	"context"
	"sync"

	"redops/internal/domain"
)

// Poller is the REST side of notifications.
type Poller interface {
	List(ctx context.Context) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
}

// Log is the local notification list, newest first.
type Log struct {
	poller Poller

	mu    sync.Mutex
	items []domain.Notification
	err   string
	subs  map[int]func([]domain.Notification)
	next  int
}

// NewLog returns an empty log. poller may be nil for a purely local log.
func NewLog(poller Poller) *Log {
	return &Log{poller: poller, subs: map[int]func([]domain.Notification){}}
}

func (l *Log) Items() []domain.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Notification(nil), l.items...)
}

func (l *Log) Err() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Unread counts notifications not yet read.
func (l *Log) Unread() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, it := range l.items {
		if !it.Read {
			n++
		}
	}
	return n
}

func (l *Log) Subscribe(fn func([]domain.Notification)) func() {
	l.mu.Lock()
	id := l.next
	l.next++
	l.subs[id] = fn
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

func (l *Log) commit(fn func()) {
	l.mu.Lock()
	fn()
	items := append([]domain.Notification(nil), l.items...)
	subs := make([]func([]domain.Notification), 0, len(l.subs))
	for _, s := range l.subs {
		subs = append(subs, s)
	}
	l.mu.Unlock()
	for _, s := range subs {
		s(items)
	}
}

// Push inserts n at the front.
func (l *Log) Push(n domain.Notification) {
	l.commit(func() {
		l.items = append([]domain.Notification{n}, l.items...)
	})
}

// Remove drops a notification locally.
func (l *Log) Remove(id string) {
	l.commit(func() {
		kept := l.items[:0:0]
		for _, it := range l.items {
			if it.ID != id {
				kept = append(kept, it)
			}
		}
		l.items = kept
	})
}

// Load replaces the log with the server's list.
func (l *Log) Load(ctx context.Context) error {
	if l.poller == nil {
		return nil
	}
	items, err := l.poller.List(ctx)
	if err != nil {
		l.commit(func() { l.err = err.Error() })
		return err
	}
	l.commit(func() {
		l.err = ""
		l.items = items
	})
	return nil
}

// MarkRead flips one read flag, confirming with the server first when a
// poller is configured.
func (l *Log) MarkRead(ctx context.Context, id string) error {
	if l.poller != nil {
		if err := l.poller.MarkRead(ctx, id); err != nil {
			l.commit(func() { l.err = err.Error() })
			return err
		}
	}
	l.commit(func() {
		for i := range l.items {
			if l.items[i].ID == id {
				l.items[i].Read = true
			}
		}
	})
	return nil
}

// MarkAllRead flips every read flag without reordering.
func (l *Log) MarkAllRead(ctx context.Context) error {
	if l.poller != nil {
		if err := l.poller.MarkAllRead(ctx); err != nil {
			l.commit(func() { l.err = err.Error() })
			return err
		}
	}
	l.commit(func() {
		for i := range l.items {
			l.items[i].Read = true
		}
	})
	return nil
}
