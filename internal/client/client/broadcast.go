package client

import (
	"sort"
	"sync"

	"github.com/dmitrijs2005/codifyr/internal/client/models"
)

type change struct {
	event   AuthEvent
	session *models.Session
}

// broadcaster delivers session changes on its own goroutine, one at a time
// and in publish order. Listeners may call back into the client.
type broadcaster struct {
	mu        sync.Mutex
	cond      *sync.Cond
	queue     []change
	listeners map[uint64]SessionChangeFunc
	nextID    uint64
	closed    bool
	done      chan struct{}
}

func newBroadcaster() *broadcaster {
	b := &broadcaster{
		listeners: make(map[uint64]SessionChangeFunc),
		done:      make(chan struct{}),
	}
	b.cond = sync.NewCond(&b.mu)
	go b.loop()
	return b
}

type subscription struct {
	once   sync.Once
	cancel func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

func (b *broadcaster) subscribe(fn SessionChangeFunc) Subscription {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	return &subscription{cancel: func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}}
}

func (b *broadcaster) publish(c change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.queue = append(b.queue, c)
	b.cond.Signal()
}

func (b *broadcaster) loop() {
	defer close(b.done)
	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.closed {
			b.cond.Wait()
		}
		if len(b.queue) == 0 {
			b.mu.Unlock()
			return
		}
		c := b.queue[0]
		b.queue = b.queue[1:]
		fns := b.snapshotLocked()
		b.mu.Unlock()

		for _, fn := range fns {
			fn(c.event, copySession(c.session))
		}
	}
}

func (b *broadcaster) snapshotLocked() []SessionChangeFunc {
	ids := make([]uint64, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fns := make([]SessionChangeFunc, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, b.listeners[id])
	}
	return fns
}

// close drains the queue and stops the delivery goroutine.
func (b *broadcaster) close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		<-b.done
		return
	}
	b.closed = true
	b.cond.Broadcast()
	b.mu.Unlock()
	<-b.done
}

func copySession(s *models.Session) *models.Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
