package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lthibault/jitterbug/v2"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/scriptvoice/narration-planner/internal/client"
	"github.com/scriptvoice/narration-planner/pkg/metrics"
	"go.uber.org/zap"
)

const (
	DefaultPollInterval   = 2 * time.Second
	DefaultResyncInterval = 30 * time.Second

	pollOutcomeOK        = "ok"
	pollOutcomeTransient = "transient"
	pollOutcomeNotFound  = "not_found"
)

// Controller drives the job lifecycle: it submits jobs, runs one poll loop
// per active job, and reconciles the whole ledger on a slower cadence. The
// two refresh paths bound two different failure modes: a single job's loop
// dying silently is covered by the resync, a fresh job unknown to the
// resync is covered by its own loop.
type Controller struct {
	ledger   *Ledger
	producer client.Producer

	pollInterval   time.Duration
	resyncInterval time.Duration

	mu      sync.Mutex
	pollers map[uuid.UUID]context.CancelFunc

	updatesCh  chan struct{}
	resyncStop context.CancelFunc
	wg         sync.WaitGroup
}

type Option func(*Controller)

func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) { c.pollInterval = d }
}

func WithResyncInterval(d time.Duration) Option {
	return func(c *Controller) { c.resyncInterval = d }
}

func NewController(producer client.Producer, opts ...Option) *Controller {
	c := &Controller{
		ledger:         NewLedger(),
		producer:       producer,
		pollInterval:   DefaultPollInterval,
		resyncInterval: DefaultResyncInterval,
		pollers:        make(map[uuid.UUID]context.CancelFunc),
		updatesCh:      make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start launches the bulk resync loop. It runs until ctx is cancelled or
// Stop is called; starting twice is a no-op.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resyncStop != nil {
		return
	}

	resyncCtx, cancel := context.WithCancel(ctx)
	c.resyncStop = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		t := jitterbug.New(c.resyncInterval, &jitterbug.Norm{Stdev: 250 * time.Millisecond})
		defer t.Stop()
		for {
			select {
			case <-resyncCtx.Done():
				return
			case <-t.C:
				c.resync(resyncCtx)
			}
		}
	}()
}

// Stop cancels the resync loop and every per-job poller and waits for them
// to exit. The ledger content is retained.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.resyncStop != nil {
		c.resyncStop()
		c.resyncStop = nil
	}
	for id, cancel := range c.pollers {
		cancel()
		delete(c.pollers, id)
	}
	c.mu.Unlock()

	c.wg.Wait()
}

// Submit sends the request to the producer and starts tracking the new job.
// The ledger entry is inserted optimistically as processing; the first poll
// corrects it if the producer still reports queued.
func (c *Controller) Submit(ctx context.Context, request api.JobRequest) (uuid.UUID, error) {
	id, err := c.producer.Submit(ctx, request)
	if err != nil {
		return uuid.Nil, err
	}

	now := time.Now()
	c.applyMerge(api.JobSnapshot{
		ID:        id,
		Status:    api.JobStatusProcessing,
		Request:   request,
		CreatedAt: now,
		UpdatedAt: now,
	})
	c.startPoller(ctx, id)

	return id, nil
}

// Track starts following a job the controller did not submit itself.
func (c *Controller) Track(ctx context.Context, snapshot api.JobSnapshot) {
	outcome := c.applyMerge(snapshot)
	if outcome != MergeBecameTerminal {
		c.startPoller(ctx, snapshot.ID)
	}
}

// ClearJob stops the job's poll loop and removes it from the ledger.
// Clearing a job that is not tracked, or whose loop already stopped, is a
// no-op.
func (c *Controller) ClearJob(id uuid.UUID) {
	c.stopPoller(id)
	c.ledger.Remove(id)
	c.notify()
}

// ClearAll dismisses every tracked job.
func (c *Controller) ClearAll() {
	for _, id := range c.ledger.IDs() {
		c.ClearJob(id)
	}
}

// Get returns the last-known snapshot of one tracked job.
func (c *Controller) Get(id uuid.UUID) (api.JobSnapshot, bool) {
	return c.ledger.Get(id)
}

// List returns the tracked jobs, newest first.
func (c *Controller) List() []api.JobSnapshot {
	return c.ledger.List()
}

// Updates returns a channel that receives a coalesced signal whenever the
// ledger content changes.
func (c *Controller) Updates() <-chan struct{} {
	return c.updatesCh
}

func (c *Controller) startPoller(ctx context.Context, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, running := c.pollers[id]; running {
		return
	}

	pollCtx, cancel := context.WithCancel(ctx)
	c.pollers[id] = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		t := jitterbug.New(c.pollInterval, &jitterbug.Norm{Stdev: 30 * time.Millisecond})
		defer t.Stop()
		for {
			select {
			case <-pollCtx.Done():
				return
			case <-t.C:
				if done := c.pollOnce(pollCtx, id); done {
					c.stopPoller(id)
					return
				}
			}
		}
	}()
}

// stopPoller cancels a job's poll loop. Idempotent: cancelling a stopped
// loop is a no-op.
func (c *Controller) stopPoller(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cancel, running := c.pollers[id]; running {
		cancel()
		delete(c.pollers, id)
	}
}

// pollOnce fetches one job's status and merges it. It returns true when the
// loop should stop: the job reached a terminal state or the producer no
// longer knows it. A transient failure leaves the entry untouched and the
// loop retries on its next tick.
func (c *Controller) pollOnce(ctx context.Context, id uuid.UUID) bool {
	snapshot, err := c.producer.FetchStatus(ctx, id)
	if err != nil {
		switch {
		case client.IsNotFound(err):
			metrics.IncreaseJobPollsTotalMetric(pollOutcomeNotFound)
			zap.S().Named("ledger").Warnf("job %s unknown to producer, dropping: %v", id, err)
			c.ledger.Remove(id)
			c.notify()
			return true
		case client.IsTransient(err):
			metrics.IncreaseJobPollsTotalMetric(pollOutcomeTransient)
			zap.S().Named("ledger").Debugf("transient poll failure for job %s: %v", id, err)
			return false
		default:
			metrics.IncreaseJobPollsTotalMetric(pollOutcomeTransient)
			zap.S().Named("ledger").Warnf("poll failure for job %s: %v", id, err)
			return false
		}
	}

	metrics.IncreaseJobPollsTotalMetric(pollOutcomeOK)
	outcome := c.applyMerge(*snapshot)
	return outcome == MergeBecameTerminal
}

// resync reconciles the whole ledger against the producer's listing. Jobs
// present remotely but untracked are inserted and followed; terminal
// entries are never regressed by the merge.
func (c *Controller) resync(ctx context.Context) {
	snapshots, err := c.producer.FetchAll(ctx)
	if err != nil {
		// Transient by construction; the next resync tick retries.
		zap.S().Named("ledger").Debugf("resync failed: %v", err)
		return
	}

	for _, snapshot := range snapshots {
		_, tracked := c.ledger.Get(snapshot.ID)
		outcome := c.applyMerge(snapshot)
		switch outcome {
		case MergeBecameTerminal:
			c.stopPoller(snapshot.ID)
		case MergeInserted, MergeUpdated:
			if !tracked {
				c.startPoller(ctx, snapshot.ID)
			}
		}
	}
}

func (c *Controller) applyMerge(snapshot api.JobSnapshot) MergeOutcome {
	outcome := c.ledger.Merge(snapshot)
	if outcome != MergeUnchanged {
		for status, count := range c.ledger.StatusCounts() {
			metrics.UpdateJobStatusCountMetric(string(status), count)
		}
		c.notify()
	}
	return outcome
}

func (c *Controller) notify() {
	select {
	case c.updatesCh <- struct{}{}:
	default:
	}
}
