package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/luxfi/cryptobit/internal/queue"
)

// Pool manages a pool of AES job workers over a queue.
type Pool struct {
	numWorkers int
	queue      queue.Queue
	processor  *Processor
	backoff    time.Duration

	wg           sync.WaitGroup
	cancel       context.CancelFunc
	running      atomic.Bool
	successCount atomic.Int64
	failureCount atomic.Int64
}

// NewPool creates a pool of numWorkers workers.
func NewPool(numWorkers int, q queue.Queue, processor *Processor) *Pool {
	return &Pool{
		numWorkers: max(numWorkers, 1),
		queue:      q,
		processor:  processor,
		backoff:    time.Second,
	}
}

// Stats returns the number of succeeded and failed jobs.
func (p *Pool) Stats() (success, failure int64) {
	return p.successCount.Load(), p.failureCount.Load()
}

// Start starts the worker pool.
func (p *Pool) Start(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return errors.New("pool already running")
	}

	ctx, p.cancel = context.WithCancel(ctx)

	log.Infof("Starting %d workers", p.numWorkers)

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	return nil
}

// Stop cancels the workers and waits up to timeout for running jobs.
func (p *Pool) Stop(timeout time.Duration) error {
	if !p.running.Load() {
		return nil
	}

	log.Info("Stopping worker pool...")
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("Worker pool stopped")
	case <-time.After(timeout):
		return errors.New("shutdown timeout")
	}

	p.running.Store(false)
	return nil
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	log.Debugf("Worker %d started", id)

	for {
		job, err := p.queue.Pop(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil, errors.Is(err, queue.ErrQueueClosed):
			log.Debugf("Worker %d stopping", id)
			return
		default:
			log.Errorf("Worker %d: failed to pop job: %v", id, err)
			select {
			case <-time.After(p.backoff):
			case <-ctx.Done():
				return
			}
			continue
		}

		p.processJob(ctx, id, job)
	}
}

func (p *Pool) processJob(ctx context.Context, workerID int, job *queue.Job) {
	log.Infof("Worker %d: processing %v job %s", workerID, job.Operation, job.ID)
	start := time.Now()

	job.Status = queue.StatusProcessing
	if err := p.queue.Update(ctx, job); err != nil {
		log.Errorf("Worker %d: failed to update job status: %v", workerID, err)
	}

	handle, budget, err := p.processor.Process(ctx, job)
	if err != nil {
		job.Status = queue.StatusFailed
		job.Error = err.Error()
		p.failureCount.Add(1)
		log.Warnf("Worker %d: job %s failed: %v", workerID, job.ID, err)
	} else {
		job.Status = queue.StatusCompleted
		job.ResultHandle = string(handle)
		job.MinNoiseBudget = budget
		p.successCount.Add(1)
		log.Infof("Worker %d: job %s completed in %v (noise budget %d)",
			workerID, job.ID, time.Since(start), budget)
	}

	// The result is recorded even when the pool is stopping.
	if err := p.queue.Update(context.WithoutCancel(ctx), job); err != nil {
		log.Errorf("Worker %d: failed to update job result: %v", workerID, err)
	}
}
