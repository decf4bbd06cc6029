package msgworker

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// activeUserTTL is how long a user stays listed in the stats after their
// last dispatch.
const activeUserTTL = 2 * time.Second

// DropReason says why a job never reached a worker.
type DropReason string

const (
	ErrNotStarted DropReason = "not_started"
	ErrStopped    DropReason = "stopped"
	ErrQueueFull  DropReason = "queue_full"
)

func (r DropReason) Error() string {
	return "job dropped: " + string(r)
}

// DropError is returned by Dispatch for a job that was not queued. It
// unwraps to its DropReason, so callers can test errors.Is(err, ErrQueueFull).
type DropError struct {
	Reason   DropReason
	Platform string
	UserID   string
	Worker   int
}

func (e *DropError) Error() string {
	if e.Reason == ErrQueueFull {
		return fmt.Sprintf("%s message of %s dropped: worker %d queue is full", e.Platform, e.UserID, e.Worker)
	}
	return fmt.Sprintf("%s message of %s dropped: pool %s", e.Platform, e.UserID, e.Reason)
}

func (e *DropError) Unwrap() error {
	return e.Reason
}

// ReasonOf returns the drop reason carried by err, or "" when err is not a
// dropped job.
func ReasonOf(err error) DropReason {
	var reason DropReason
	if errors.As(err, &reason) {
		return reason
	}
	return ""
}

// Job handles one inbound chat message of a platform user. Jobs of the same
// user run on the same worker, in dispatch order.
type Job struct {
	Platform string
	UserID   string
	Handler  func(ctx context.Context) error
}

func (j Job) key() string {
	return j.Platform + "|" + j.UserID
}

type PoolStats struct {
	NumWorkers      int                  `json:"num_workers"`
	QueueSize       int                  `json:"queue_size"`
	ActiveWorkers   int                  `json:"active_workers"`
	TotalDispatched int64                `json:"total_dispatched"`
	TotalProcessed  int64                `json:"total_processed"`
	TotalDropped    int64                `json:"total_dropped"`
	TotalErrors     int64                `json:"total_errors"`
	Dropped         map[DropReason]int64 `json:"dropped"`
	WorkerStats     []WorkerStats        `json:"worker_stats"`
	ActiveUsers     map[string]int       `json:"active_users"` // platform|user -> worker_id
}

type WorkerStats struct {
	WorkerID      int   `json:"worker_id"`
	QueueDepth    int   `json:"queue_depth"`
	IsProcessing  bool  `json:"is_processing"`
	JobsProcessed int64 `json:"jobs_processed"`
}

type poolState int

const (
	stateIdle poolState = iota
	stateRunning
	stateStopped
)

// Pool runs chat message handlers on a fixed set of workers sharded by
// user, so the messages and replies of one user are handled serially while
// different users run in parallel.
type Pool struct {
	numWorkers int
	queueSize  int

	// mu guards state and the worker queues: Dispatch sends under the read
	// lock, Stop closes the queues under the write lock.
	mu      sync.RWMutex
	state   poolState
	workers []*worker
	wg      sync.WaitGroup

	dispatched atomic.Int64
	processed  atomic.Int64
	failed     atomic.Int64

	dropMu  sync.Mutex
	dropped map[DropReason]int64

	usersMu sync.Mutex
	users   map[string]activeUser
}

type activeUser struct {
	worker   int
	lastSeen time.Time
}

type worker struct {
	id        int
	queue     chan Job
	busy      atomic.Bool
	processed atomic.Int64
}

func NewPool(numWorkers, queueSize int) *Pool {
	if numWorkers <= 0 {
		numWorkers = 10
	}
	if queueSize <= 0 {
		queueSize = 100
	}

	return &Pool{
		numWorkers: numWorkers,
		queueSize:  queueSize,
		dropped:    make(map[DropReason]int64),
		users:      make(map[string]activeUser),
	}
}

// Start launches the workers. Handlers receive ctx; queued jobs keep running
// after it is cancelled until Stop closes the queues.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != stateIdle {
		return
	}

	p.workers = make([]*worker, p.numWorkers)
	for i := range p.workers {
		w := &worker{id: i, queue: make(chan Job, p.queueSize)}
		p.workers[i] = w

		p.wg.Add(1)
		go p.run(ctx, w)
	}
	p.state = stateRunning

	logrus.Infof("[MSG_WORKER_POOL] Started with %d workers, queue size: %d", p.numWorkers, p.queueSize)
}

// Dispatch queues job without blocking. A job that cannot be queued is
// dropped and reported as a *DropError.
func (p *Pool) Dispatch(job Job) error {
	key := job.key()
	shard := p.shardFor(key)

	p.mu.RLock()
	defer p.mu.RUnlock()

	switch p.state {
	case stateIdle:
		return p.drop(job, shard, ErrNotStarted)
	case stateStopped:
		return p.drop(job, shard, ErrStopped)
	}

	select {
	case p.workers[shard].queue <- job:
	default:
		return p.drop(job, shard, ErrQueueFull)
	}

	p.dispatched.Add(1)
	p.usersMu.Lock()
	p.users[key] = activeUser{worker: shard, lastSeen: time.Now()}
	p.usersMu.Unlock()
	return nil
}

func (p *Pool) drop(job Job, shard int, reason DropReason) error {
	p.dropMu.Lock()
	p.dropped[reason]++
	p.dropMu.Unlock()

	err := &DropError{Reason: reason, Platform: job.Platform, UserID: job.UserID, Worker: shard}
	logrus.WithFields(logrus.Fields{"platform": job.Platform, "user_id": job.UserID, "reason": reason}).
		Warnf("[MSG_WORKER_POOL] Dropping job for worker %d", shard)
	return err
}

// Stop closes the queues and waits for the queued jobs to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.state == stateStopped {
		p.mu.Unlock()
		return
	}
	wasRunning := p.state == stateRunning
	p.state = stateStopped
	for _, w := range p.workers {
		close(w.queue)
	}
	p.mu.Unlock()

	if !wasRunning {
		return
	}
	logrus.Info("[MSG_WORKER_POOL] Stopping workers...")
	p.wg.Wait()
	logrus.Info("[MSG_WORKER_POOL] All workers stopped")
}

func (p *Pool) shardFor(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(p.numWorkers))
}

func (p *Pool) GetStats() PoolStats {
	p.mu.RLock()
	workerStats := make([]WorkerStats, p.numWorkers)
	activeWorkers := 0
	for i, w := range p.workers {
		busy := w.busy.Load()
		if busy {
			activeWorkers++
		}
		workerStats[i] = WorkerStats{
			WorkerID:      w.id,
			QueueDepth:    len(w.queue),
			IsProcessing:  busy,
			JobsProcessed: w.processed.Load(),
		}
	}
	p.mu.RUnlock()

	p.dropMu.Lock()
	dropped := make(map[DropReason]int64, len(p.dropped))
	var totalDropped int64
	for reason, n := range p.dropped {
		dropped[reason] = n
		totalDropped += n
	}
	p.dropMu.Unlock()

	now := time.Now()
	p.usersMu.Lock()
	users := make(map[string]int, len(p.users))
	for key, u := range p.users {
		if now.Sub(u.lastSeen) > activeUserTTL {
			delete(p.users, key)
			continue
		}
		users[key] = u.worker
	}
	p.usersMu.Unlock()

	return PoolStats{
		NumWorkers:      p.numWorkers,
		QueueSize:       p.queueSize,
		ActiveWorkers:   activeWorkers,
		TotalDispatched: p.dispatched.Load(),
		TotalProcessed:  p.processed.Load(),
		TotalDropped:    totalDropped,
		TotalErrors:     p.failed.Load(),
		Dropped:         dropped,
		WorkerStats:     workerStats,
		ActiveUsers:     users,
	}
}

func (p *Pool) run(ctx context.Context, w *worker) {
	defer p.wg.Done()

	for job := range w.queue {
		p.execute(ctx, w, job)
	}
}

func (p *Pool) execute(ctx context.Context, w *worker, job Job) {
	w.busy.Store(true)
	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			logrus.WithFields(logrus.Fields{"platform": job.Platform, "user_id": job.UserID}).
				Errorf("[MSG_WORKER_POOL] Worker %d panic: %v", w.id, r)
		}
		w.busy.Store(false)
		w.processed.Add(1)
		p.processed.Add(1)
	}()

	if err := job.Handler(ctx); err != nil {
		p.failed.Add(1)
		logrus.WithFields(logrus.Fields{"platform": job.Platform, "user_id": job.UserID}).
			WithError(err).Errorf("[MSG_WORKER_POOL] Worker %d job failed", w.id)
	}
}
