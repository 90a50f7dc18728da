package hook

import "sync"

// semaphore is a counting semaphore built on a mutex and condition
// variable: a mutex-guarded count plus a sync.Cond standing in for POSIX
// sem_t. It gives the producer/consumer rendezvous exact sem_wait/sem_post
// semantics: Post never blocks, Wait blocks only while the count is zero.
type semaphore struct {
	mu    sync.Mutex
	cond  *sync.Cond
	count int
}

func newSemaphore(initial int) *semaphore {
	s := &semaphore{count: initial}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// wait blocks until the count is positive, then decrements it.
func (s *semaphore) wait() {
	s.mu.Lock()
	for s.count == 0 {
		s.cond.Wait()
	}
	s.count--
	s.mu.Unlock()
}

// post increments the count and wakes one waiter. Safe to call from the
// async producer path: it never blocks.
func (s *semaphore) post() {
	s.mu.Lock()
	s.count++
	s.mu.Unlock()
	s.cond.Signal()
}
