package pubsub

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultPublishTimeout = 20 * time.Second

type Publisher[E any] interface {
	Publish(evt E)
}

type Subscriber[E any] interface {
	Subscribe(ctx context.Context) Subscription[E]
}

type Subscription[E any] interface {
	ResultChan() <-chan E
	Stop()
}

// PubSub distributes every published event to all of its subscribers.
type PubSub[E any] struct {
	mutex         sync.RWMutex
	subscriptions map[int64]*subscription[E]
	seq           int64
	stopped       bool
	// PublishTimeout is the time a subscriber may take to accept an event before it is kicked.
	PublishTimeout time.Duration
}

func New[E any]() *PubSub[E] {
	return &PubSub[E]{
		subscriptions:  map[int64]*subscription[E]{},
		PublishTimeout: defaultPublishTimeout,
	}
}

// Stop closes all subscriptions.
// Events that were published before remain readable from the subscriptions' channels.
func (p *PubSub[E]) Stop() {
	p.mutex.Lock()
	p.stopped = true
	subscriptions := p.subscriptions
	p.subscriptions = map[int64]*subscription[E]{}
	p.mutex.Unlock()

	for _, s := range subscriptions {
		s.close()
	}
}

func (p *PubSub[E]) Subscribe(ctx context.Context) Subscription[E] {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.stopped {
		return noopSubscription[E]{}
	}

	p.seq++

	ctx, cancel := context.WithCancel(ctx)
	s := &subscription[E]{
		id:     p.seq,
		cancel: cancel,
		pubsub: p,
		ch:     make(chan E, 10),
	}
	p.subscriptions[s.id] = s

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return s
}

func (p *PubSub[E]) Publish(evt E) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if p.stopped {
		return
	}

	for _, s := range p.subscriptions {
		select {
		case s.ch <- evt:
		case <-time.After(p.PublishTimeout):
			slog.Warn("kicking subscriber since it timed out accepting the event", "subscription", s.id, "timeout", p.PublishTimeout)
			go s.Stop()
		}
	}
}

type subscription[E any] struct {
	pubsub *PubSub[E]
	id     int64
	cancel context.CancelFunc
	ch     chan E
	once   sync.Once
}

// Stop unsubscribes and closes the channel.
func (s *subscription[E]) Stop() {
	s.pubsub.mutex.Lock()
	delete(s.pubsub.subscriptions, s.id)
	s.pubsub.mutex.Unlock()

	s.close()
}

// close must only be called after the subscription has been removed from the PubSub.
func (s *subscription[E]) close() {
	s.once.Do(func() {
		close(s.ch)
		s.cancel()
	})
}

func (s *subscription[E]) ResultChan() <-chan E {
	return s.ch
}

type noopSubscription[E any] struct{}

func (noopSubscription[E]) Stop() {}

func (noopSubscription[E]) ResultChan() <-chan E {
	ch := make(chan E)
	close(ch)
	return ch
}
