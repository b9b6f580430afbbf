package outbox

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

// Applier persists a change remotely.
type Applier interface {
	Apply(ctx context.Context, change domain.Change) error
}

// Config sizes the worker pool.
type Config struct {
	Workers        int
	Buffer         int
	Timeout        time.Duration
	HandoffTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Buffer <= 0 {
		c.Buffer = c.Workers * 64
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	return c
}

// Outbox hands board changes to an Applier on background workers. Changes of
// one task always land on the same worker so they are applied in emit order.
// When a worker queue stays full past the handoff timeout the change is
// delivered on a detached goroutine instead. Failures are logged, never retried
// and never reported back to the emitter.
type Outbox struct {
	cfg    Config
	store  Applier
	logger *log.Logger

	queues []chan domain.Change
	wg     sync.WaitGroup

	mu      sync.RWMutex
	closing bool

	delivered atomic.Uint64
	failed    atomic.Uint64
	overflow  atomic.Uint64
	dropped   atomic.Uint64
	started   time.Time
}

// New starts the workers.
func New(cfg Config, store Applier, logger *log.Logger) *Outbox {
	if store == nil {
		panic("outbox.New: store is required")
	}
	if logger == nil {
		panic("outbox.New: logger is required")
	}
	cfg = cfg.withDefaults()
	perWorker := cfg.Buffer / cfg.Workers
	if perWorker <= 0 {
		perWorker = 1
	}
	o := &Outbox{
		cfg:     cfg,
		store:   store,
		logger:  logger,
		queues:  make([]chan domain.Change, cfg.Workers),
		started: time.Now().UTC(),
	}
	for i := range o.queues {
		o.queues[i] = make(chan domain.Change, perWorker)
		o.wg.Add(1)
		go o.worker(i, o.queues[i])
	}
	logger.Infof("change outbox started, workers: %d, buffer: %d, timeout: %v, handoff: %v",
		cfg.Workers, perWorker*cfg.Workers, cfg.Timeout, cfg.HandoffTimeout)
	return o
}

// Emit queues a change for delivery. It never blocks longer than the handoff timeout.
func (o *Outbox) Emit(change domain.Change) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closing {
		o.dropped.Add(1)
		o.logger.WithFields(log.Fields{"op": change.Op, "task": change.Task.ID}).Warn("outbox closed, change dropped")
		return
	}

	q := o.queues[o.shard(change.Task.ID)]
	if o.handoff(q, change) {
		return
	}

	o.overflow.Add(1)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.deliver(change, -1)
	}()
}

func (o *Outbox) handoff(q chan domain.Change, change domain.Change) bool {
	select {
	case q <- change:
		return true
	default:
	}
	if o.cfg.HandoffTimeout <= 0 {
		return false
	}
	timer := time.NewTimer(o.cfg.HandoffTimeout)
	defer timer.Stop()
	select {
	case q <- change:
		return true
	case <-timer.C:
		return false
	}
}

func (o *Outbox) shard(taskID string) int {
	if len(o.queues) == 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(taskID))
	return int(h.Sum32() % uint32(len(o.queues)))
}

func (o *Outbox) worker(id int, ch <-chan domain.Change) {
	defer o.wg.Done()
	for change := range ch {
		o.deliver(change, id)
	}
}

func (o *Outbox) deliver(change domain.Change, workerID int) {
	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.Timeout)
	err := o.store.Apply(ctx, change)
	cancel()
	if err != nil {
		o.failed.Add(1)
		o.logger.WithError(err).WithFields(log.Fields{
			"op":      change.Op,
			"task":    change.Task.ID,
			"project": change.Task.ProjectID,
			"user":    change.UserID,
			"worker":  workerID,
		}).Error("change delivery failed")
		return
	}
	o.delivered.Add(1)
}

// Shutdown stops accepting changes and waits for queued ones to drain.
func (o *Outbox) Shutdown() {
	o.mu.Lock()
	if o.closing {
		o.mu.Unlock()
		return
	}
	o.closing = true
	for _, q := range o.queues {
		close(q)
	}
	o.mu.Unlock()
	o.wg.Wait()
}

// Stats is a snapshot of the outbox counters.
type Stats struct {
	Buffered  int       `json:"buffered"`
	Delivered uint64    `json:"delivered"`
	Failed    uint64    `json:"failed"`
	Overflow  uint64    `json:"overflow"`
	Dropped   uint64    `json:"dropped"`
	StartedAt time.Time `json:"startedAt"`
}

func (o *Outbox) Stats() Stats {
	buffered := 0
	for _, q := range o.queues {
		buffered += len(q)
	}
	return Stats{
		Buffered:  buffered,
		Delivered: o.delivered.Load(),
		Failed:    o.failed.Load(),
		Overflow:  o.overflow.Load(),
		Dropped:   o.dropped.Load(),
		StartedAt: o.started,
	}
}
