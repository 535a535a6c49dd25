package audio

import "sync"

// summaryStore is a bounded room -> summary mailbox. A meeting reusing a code
// overwrites in place; when the bound is hit the oldest entry is evicted, so
// the mailbox cannot grow without limit in a long-running process.
type summaryStore struct {
	mu      sync.Mutex
	max     int
	entries map[string]string
	order   []string
}

func newSummaryStore(max int) *summaryStore {
	return &summaryStore{
		max:     max,
		entries: make(map[string]string),
	}
}

func (s *summaryStore) Put(room, summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[room]; !ok {
		s.order = append(s.order, room)
		if len(s.order) > s.max {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.entries, oldest)
		}
	}
	s.entries[room] = summary
}

func (s *summaryStore) Get(room string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary, ok := s.entries[room]
	return summary, ok
}

func (s *summaryStore) Delete(room string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[room]; !ok {
		return
	}
	delete(s.entries, room)
	for i, r := range s.order {
		if r == room {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
