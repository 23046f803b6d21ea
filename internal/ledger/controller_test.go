package ledger_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/scriptvoice/narration-planner/internal/client"
	"github.com/scriptvoice/narration-planner/internal/ledger"
)

// fakeProducer scripts the responses of the remote producer. Each job is
// served its status sequence one poll at a time, sticking on the last one.
type fakeProducer struct {
	mu        sync.Mutex
	sequences map[uuid.UUID][]api.JobSnapshot
	polls     map[uuid.UUID]int
	submitErr error
	fetchErr  error
}

func newFakeProducer() *fakeProducer {
	return &fakeProducer{
		sequences: make(map[uuid.UUID][]api.JobSnapshot),
		polls:     make(map[uuid.UUID]int),
	}
}

func (f *fakeProducer) script(id uuid.UUID, snapshots ...api.JobSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sequences[id] = snapshots
}

func (f *fakeProducer) pollCount(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls[id]
}

func (f *fakeProducer) Submit(ctx context.Context, request api.JobRequest) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return uuid.Nil, f.submitErr
	}
	return uuid.New(), nil
}

func (f *fakeProducer) FetchStatus(ctx context.Context, id uuid.UUID) (*api.JobSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fetchErr != nil {
		return nil, f.fetchErr
	}

	sequence, known := f.sequences[id]
	if !known || len(sequence) == 0 {
		return nil, client.NewNotFoundError(id, "job")
	}

	idx := f.polls[id]
	f.polls[id]++
	if idx >= len(sequence) {
		idx = len(sequence) - 1
	}
	snapshot := sequence[idx]
	return &snapshot, nil
}

func (f *fakeProducer) FetchAll(ctx context.Context) ([]api.JobSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fetchErr != nil {
		return nil, f.fetchErr
	}

	snapshots := make([]api.JobSnapshot, 0, len(f.sequences))
	for id, sequence := range f.sequences {
		if len(sequence) == 0 {
			continue
		}
		idx := f.polls[id]
		if idx >= len(sequence) {
			idx = len(sequence) - 1
		}
		snapshots = append(snapshots, sequence[idx])
	}
	return snapshots, nil
}

var _ = Describe("lifecycle controller", func() {
	var (
		producer *fakeProducer
		ctrl     *ledger.Controller
		ctx      context.Context
		cancel   context.CancelFunc
	)

	BeforeEach(func() {
		producer = newFakeProducer()
		ctrl = ledger.NewController(producer,
			ledger.WithPollInterval(10*time.Millisecond),
			ledger.WithResyncInterval(25*time.Millisecond),
		)
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
		ctrl.Stop()
	})

	Context("per-job polling", func() {
		It("polls processing until completed, then stops", func() {
			id := uuid.New()
			processing := processingSnapshot(id)
			completed := completedSnapshot(id, 1000)
			producer.script(id, processing, processing, processing, completed)

			ctrl.Track(ctx, processing)

			Eventually(func() api.JobStatus {
				entry, _ := ctrl.Get(id)
				return entry.Status
			}, time.Second, 5*time.Millisecond).Should(Equal(api.JobStatusCompleted))

			entry, _ := ctrl.Get(id)
			Expect(entry.Result).NotTo(BeNil())
			Expect(entry.Result.WordCount).To(Equal(1000))

			// Polling for the job has stopped.
			settled := producer.pollCount(id)
			Consistently(func() int {
				return producer.pollCount(id)
			}, 100*time.Millisecond, 10*time.Millisecond).Should(Equal(settled))
		})

		It("drops the job when the producer no longer knows it", func() {
			id := uuid.New()
			ctrl.Track(ctx, processingSnapshot(id))

			Eventually(func() bool {
				_, found := ctrl.Get(id)
				return found
			}, time.Second, 5*time.Millisecond).Should(BeFalse())
		})

		It("keeps the entry unchanged across transient failures", func() {
			id := uuid.New()
			processing := processingSnapshot(id)
			producer.script(id, processing)
			producer.mu.Lock()
			producer.fetchErr = client.NewTransientError(context.DeadlineExceeded)
			producer.mu.Unlock()

			ctrl.Track(ctx, processing)

			Consistently(func() api.JobStatus {
				entry, _ := ctrl.Get(id)
				return entry.Status
			}, 100*time.Millisecond, 10*time.Millisecond).Should(Equal(api.JobStatusProcessing))

			// Once the producer recovers, the next tick picks the job up again.
			producer.mu.Lock()
			producer.fetchErr = nil
			producer.sequences[id] = []api.JobSnapshot{completedSnapshot(id, 500)}
			producer.mu.Unlock()

			Eventually(func() api.JobStatus {
				entry, _ := ctrl.Get(id)
				return entry.Status
			}, time.Second, 5*time.Millisecond).Should(Equal(api.JobStatusCompleted))
		})
	})

	Context("bulk resync", func() {
		It("discovers jobs created elsewhere", func() {
			ctrl.Start(ctx)

			id := uuid.New()
			producer.script(id, processingSnapshot(id))

			Eventually(func() bool {
				_, found := ctrl.Get(id)
				return found
			}, time.Second, 5*time.Millisecond).Should(BeTrue())
		})

		It("applies a terminal state seen only by the resync path", func() {
			ctrl.Start(ctx)

			id := uuid.New()
			completed := completedSnapshot(id, 750)
			producer.script(id, completed)

			Eventually(func() api.JobStatus {
				entry, _ := ctrl.Get(id)
				return entry.Status
			}, time.Second, 5*time.Millisecond).Should(Equal(api.JobStatusCompleted))
		})
	})

	Context("dismissal", func() {
		It("removes the job and is idempotent", func() {
			id := uuid.New()
			processing := processingSnapshot(id)
			producer.script(id, processing)
			ctrl.Track(ctx, processing)

			ctrl.ClearJob(id)
			_, found := ctrl.Get(id)
			Expect(found).To(BeFalse())

			// Clearing an already-removed job is a no-op.
			ctrl.ClearJob(id)
		})

		It("clears every tracked job", func() {
			for i := 0; i < 3; i++ {
				id := uuid.New()
				processing := processingSnapshot(id)
				producer.script(id, processing)
				ctrl.Track(ctx, processing)
			}
			Expect(ctrl.List()).To(HaveLen(3))

			ctrl.ClearAll()
			Expect(ctrl.List()).To(BeEmpty())
		})
	})
})
