package engine

import "sync"

// task pairs a unit of work with its completion signal.
type task struct {
	run  func()
	done chan struct{}
}

// workerPool is a fixed-size pool executing the per-tick prediction and
// classification tasks. Tasks are side-effect-free closures over snapshot
// data; completion is observed through the returned channel.
type workerPool struct {
	tasks chan task
	wg    sync.WaitGroup
}

// newWorkerPool starts n workers. The task channel carries a small buffer so
// the scheduler can hand off a tick's tasks without waiting for a free
// worker.
func newWorkerPool(n int) *workerPool {
	if n < 1 {
		n = 1
	}
	p := &workerPool{tasks: make(chan task, 2*n)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *workerPool) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		t.run()
		close(t.done)
	}
}

// Submit schedules fn and returns a channel closed when it has run.
func (p *workerPool) Submit(fn func()) <-chan struct{} {
	t := task{run: fn, done: make(chan struct{})}
	p.tasks <- t
	return t.done
}

// Close stops accepting work and waits for the workers to drain. Callers
// must guarantee no further Submit calls.
func (p *workerPool) Close() {
	close(p.tasks)
	p.wg.Wait()
}
