package statestore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a swappable Store fake for domain-layer unit tests, the
// same role the teacher gives a hand-rolled in-memory repository behind a
// ports/out interface. TTLs are tracked but only enforced lazily on read,
// which is sufficient for tests that drive time explicitly rather than
// sleeping.
type MemoryStore struct {
	mu      sync.Mutex
	scalars map[string]entry
	hashes  map[string]hashEntry
	subs    map[string][]chan string
}

type entry struct {
	value   string
	expires time.Time
}

type hashEntry struct {
	fields  map[string]string
	expires time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scalars: make(map[string]entry),
		hashes:  make(map[string]hashEntry),
		subs:    make(map[string][]chan string),
	}
}

func (s *MemoryStore) expired(t time.Time) bool {
	return !t.IsZero() && time.Now().After(t)
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.scalars[key]
	if !ok || s.expired(e.expires) {
		delete(s.scalars, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	s.scalars[key] = entry{value: value, expires: exp}
	return nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.scalars, k)
		delete(s.hashes, k)
	}
	return nil
}

func (s *MemoryStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[key]
	if !ok || s.expired(h.expires) {
		delete(s.hashes, key)
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(h.fields))
	for k, v := range h.fields {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) HSet(_ context.Context, key string, fields map[string]string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[key]
	if !ok || s.expired(h.expires) {
		h = hashEntry{fields: make(map[string]string)}
	}
	for k, v := range fields {
		h.fields[k] = v
	}
	if ttl > 0 {
		h.expires = time.Now().Add(ttl)
	}
	s.hashes[key] = h
	return nil
}

func (s *MemoryStore) HDel(_ context.Context, key string, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[key]
	if !ok {
		return nil
	}
	for _, f := range fields {
		delete(h.fields, f)
	}
	s.hashes[key] = h
	return nil
}

func (s *MemoryStore) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.scalars[key]
	var n int64
	if ok && !s.expired(e.expires) {
		n = parseInt(e.value)
	}
	n++
	s.scalars[key] = entry{value: formatInt(n), expires: e.expires}
	return n, nil
}

func (s *MemoryStore) Publish(_ context.Context, channel, payload string) error {
	s.mu.Lock()
	subs := append([]chan string(nil), s.subs[channel]...)
	s.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, channel string) (<-chan string, func(), error) {
	ch := make(chan string, 64)
	s.mu.Lock()
	s.subs[channel] = append(s.subs[channel], ch)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		subs := s.subs[channel]
		for i, c := range subs {
			if c == ch {
				s.subs[channel] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
	}
	return ch, cancel, nil
}

func (s *MemoryStore) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.scalars[key]; ok {
		if e.expires.IsZero() {
			return -1, nil
		}
		if s.expired(e.expires) {
			return -2, nil
		}
		return time.Until(e.expires), nil
	}
	if h, ok := s.hashes[key]; ok {
		if h.expires.IsZero() {
			return -1, nil
		}
		if s.expired(h.expires) {
			return -2, nil
		}
		return time.Until(h.expires), nil
	}
	return -2, nil
}

func (s *MemoryStore) Pipeline() Pipeline {
	return &memoryPipeline{store: s}
}

type memoryOp func(s *MemoryStore)

type memoryPipeline struct {
	store *MemoryStore
	ops   []memoryOp
}

func (p *memoryPipeline) Set(key, value string, ttl time.Duration) {
	p.ops = append(p.ops, func(s *MemoryStore) { _ = s.Set(context.Background(), key, value, ttl) })
}

func (p *memoryPipeline) HSet(key string, fields map[string]string, ttl time.Duration) {
	p.ops = append(p.ops, func(s *MemoryStore) { _ = s.HSet(context.Background(), key, fields, ttl) })
}

func (p *memoryPipeline) Del(keys ...string) {
	p.ops = append(p.ops, func(s *MemoryStore) { _ = s.Del(context.Background(), keys...) })
}

func (p *memoryPipeline) Incr(key string) {
	p.ops = append(p.ops, func(s *MemoryStore) { _, _ = s.Incr(context.Background(), key) })
}

func (p *memoryPipeline) Exec(_ context.Context) error {
	for _, op := range p.ops {
		op(p.store)
	}
	return nil
}

func parseInt(s string) int64 {
	var n int64
	neg := false
	for i, c := range s {
		if i == 0 && c == '-' {
			neg = true
			continue
		}
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int64(c-'0')
	}
	if neg {
		n = -n
	}
	return n
}

func formatInt(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
