package queue

import (
	"errors"
	"log"
	"sync"
)

var (
	ErrQueueFull   = errors.New("queue: job queue is full")
	ErrQueueClosed = errors.New("queue: manager is shut down")
)

type Job struct {
	Fn   func() error
	Errc chan error
}

// RequestQueueManager runs jobs on a fixed set of workers fed by a bounded
// channel. HTTP handlers block on EnqueueJob; hot paths use TryEnqueue.
type RequestQueueManager struct {
	JobQueue   chan Job
	MaxWorkers int

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func NewRequestQueueManager(queueSize int, maxWorkers int) *RequestQueueManager {
	manager := &RequestQueueManager{
		JobQueue:   make(chan Job, queueSize),
		MaxWorkers: maxWorkers,
	}
	manager.startWorkers()
	return manager
}

func (rqm *RequestQueueManager) startWorkers() {
	for i := 0; i < rqm.MaxWorkers; i++ {
		rqm.wg.Add(1)
		go func(workerID int) {
			defer rqm.wg.Done()
			log.Printf("[queue] worker %d started", workerID)
			for job := range rqm.JobQueue {
				err := run(job.Fn)
				if job.Errc != nil {
					job.Errc <- err
				}
			}
			log.Printf("[queue] worker %d stopped", workerID)
		}(i)
	}
}

func run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[queue] job panicked: %v", r)
			err = errors.New("queue: job panicked")
		}
	}()
	return fn()
}

// EnqueueJob blocks until the job is queued. After Shutdown the job fails
// with ErrQueueClosed.
func (rqm *RequestQueueManager) EnqueueJob(job Job) {
	rqm.mu.RLock()
	defer rqm.mu.RUnlock()
	if rqm.closed {
		if job.Errc != nil {
			job.Errc <- ErrQueueClosed
		}
		return
	}
	rqm.JobQueue <- job
}

// TryEnqueue queues fn without blocking.
func (rqm *RequestQueueManager) TryEnqueue(fn func() error) error {
	rqm.mu.RLock()
	defer rqm.mu.RUnlock()
	if rqm.closed {
		return ErrQueueClosed
	}
	select {
	case rqm.JobQueue <- Job{Fn: fn}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (rqm *RequestQueueManager) Depth() int {
	return len(rqm.JobQueue)
}

// Shutdown stops accepting jobs and waits for queued ones to finish.
func (rqm *RequestQueueManager) Shutdown() {
	rqm.mu.Lock()
	if rqm.closed {
		rqm.mu.Unlock()
		return
	}
	rqm.closed = true
	close(rqm.JobQueue)
	rqm.mu.Unlock()
	rqm.wg.Wait()
}
