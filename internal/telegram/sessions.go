package telegram

import (
	"sync"

	"github.com/kiranshivaraju/testopsbot/internal/bot"
	"github.com/kiranshivaraju/testopsbot/internal/conversation"
)

// sessionQueues runs events of one session strictly in arrival order on a
// single worker, while separate sessions run in parallel. A worker exits as
// soon as its queue is empty.
type sessionQueues struct {
	handle func(bot.Event)

	mu     sync.Mutex
	queues map[conversation.Key][]bot.Event // present while a worker runs
	wg     sync.WaitGroup
}

func newSessionQueues(handle func(bot.Event)) *sessionQueues {
	return &sessionQueues{
		handle: handle,
		queues: make(map[conversation.Key][]bot.Event),
	}
}

// submit enqueues ev behind the session's pending events.
func (s *sessionQueues) submit(ev bot.Event) {
	key := ev.Key()

	s.mu.Lock()
	pending, running := s.queues[key]
	s.queues[key] = append(pending, ev)
	if !running {
		s.wg.Add(1)
	}
	s.mu.Unlock()

	if !running {
		go s.drain(key)
	}
}

func (s *sessionQueues) drain(key conversation.Key) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		pending := s.queues[key]
		if len(pending) == 0 {
			delete(s.queues, key)
			s.mu.Unlock()
			return
		}
		ev := pending[0]
		pending[0] = bot.Event{}
		s.queues[key] = pending[1:]
		s.mu.Unlock()

		s.handle(ev)
	}
}

// wait blocks until every submitted event has been handled.
func (s *sessionQueues) wait() {
	s.wg.Wait()
}

func (s *sessionQueues) active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues)
}
