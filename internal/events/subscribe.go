package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Subscriber delivers the raw JSON events of one call.
type Subscriber interface {
	Subscribe(ctx context.Context, callID string) (Subscription, error)
}

type Subscription interface {
	Messages() <-chan string
	Close() error
}

type redisSubscription struct {
	ps   *redis.PubSub
	out  chan string
	done chan struct{}
	once sync.Once
}

func (s *redisSubscription) Messages() <-chan string { return s.out }

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

// Subscribe waits for the subscription to be confirmed so no event published
// after it returns is missed.
func (p *RedisPublisher) Subscribe(ctx context.Context, callID string) (Subscription, error) {
	ps := p.rdb.Subscribe(ctx, Channel(callID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	s := &redisSubscription{ps: ps, out: make(chan string, 64), done: make(chan struct{})}
	go func() {
		defer close(s.out)
		for m := range ps.Channel() {
			select {
			case s.out <- m.Payload:
			case <-s.done:
				return
			}
		}
	}()
	return s, nil
}

// Memory is an in-process broker for single-instance runs. Slow subscribers
// lose events rather than block publishers.
type Memory struct {
	mu   sync.Mutex
	subs map[string]map[*memSubscription]struct{}
}

func NewMemory() *Memory {
	return &Memory{subs: make(map[string]map[*memSubscription]struct{})}
}

type memSubscription struct {
	m      *Memory
	callID string
	out    chan string
	once   sync.Once
}

func (s *memSubscription) Messages() <-chan string { return s.out }

func (s *memSubscription) Close() error {
	s.once.Do(func() {
		s.m.mu.Lock()
		delete(s.m.subs[s.callID], s)
		if len(s.m.subs[s.callID]) == 0 {
			delete(s.m.subs, s.callID)
		}
		s.m.mu.Unlock()
		close(s.out)
	})
	return nil
}

func (m *Memory) Subscribe(_ context.Context, callID string) (Subscription, error) {
	s := &memSubscription{m: m, callID: callID, out: make(chan string, 64)}
	m.mu.Lock()
	if m.subs[callID] == nil {
		m.subs[callID] = make(map[*memSubscription]struct{})
	}
	m.subs[callID][s] = struct{}{}
	m.mu.Unlock()
	return s, nil
}

func (m *Memory) Publish(_ context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for s := range m.subs[ev.CallID] {
		select {
		case s.out <- string(b):
		default:
		}
	}
	return nil
}
