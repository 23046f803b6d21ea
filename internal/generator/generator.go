package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lthibault/jitterbug/v2"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/scriptvoice/narration-planner/internal/events"
	"github.com/scriptvoice/narration-planner/internal/store"
	"github.com/scriptvoice/narration-planner/internal/store/model"
	"github.com/scriptvoice/narration-planner/pkg/metrics"
	"go.uber.org/zap"
)

// Generator is the job producer behind the polling contract: it claims
// queued jobs, synthesizes narration scripts and writes the terminal
// status. Clients only ever observe it through the jobs API.
type Generator struct {
	store      store.Store
	evProducer *events.EventProducer
	interval   time.Duration
	log        *zap.SugaredLogger
}

func New(store store.Store, evProducer *events.EventProducer, interval time.Duration) *Generator {
	return &Generator{
		store:      store,
		evProducer: evProducer,
		interval:   interval,
		log:        zap.S().Named("generator"),
	}
}

// Run drains queued jobs until the context is cancelled. Claiming and
// status writes go through the store, so several generators can share a
// database without double-processing.
func (g *Generator) Run(ctx context.Context) {
	ticker := jitterbug.New(g.interval, &jitterbug.Norm{Stdev: g.interval / 10})
	defer ticker.Stop()

	g.log.Infow("generator started", "interval", g.interval)
	for {
		select {
		case <-ctx.Done():
			g.log.Info("generator stopped")
			return
		case <-ticker.C:
			g.drain(ctx)
		}
	}
}

func (g *Generator) drain(ctx context.Context) {
	for {
		job, err := g.store.Job().ClaimNextQueued(ctx)
		if err != nil {
			if !errors.Is(err, store.ErrRecordNotFound) {
				g.log.Errorw("failed to claim job", "error", err)
			}
			return
		}
		g.process(ctx, job)
	}
}

func (g *Generator) process(ctx context.Context, job *model.Job) {
	started := time.Now()

	var request api.JobRequest
	if err := json.Unmarshal(job.Request, &request); err != nil {
		g.fail(ctx, job, fmt.Sprintf("unreadable request parameters: %v", err))
		return
	}

	result := synthesize(&request)

	if _, err := g.store.Job().UpdateStatus(ctx, job.ID, string(api.JobStatusCompleted), result, nil); err != nil {
		g.log.Errorw("failed to store result", "error", err, "job_id", job.ID)
		return
	}

	metrics.ObserveGenerationDurationMetric(time.Since(started).Seconds())
	g.emit(ctx, job, string(api.JobStatusCompleted), "", result.WordCount)
	g.log.Infow("job completed", "job_id", job.ID, "word_count", result.WordCount)
}

func (g *Generator) fail(ctx context.Context, job *model.Job, message string) {
	if _, err := g.store.Job().UpdateStatus(ctx, job.ID, string(api.JobStatusFailed), nil, &message); err != nil {
		g.log.Errorw("failed to store failure", "error", err, "job_id", job.ID)
		return
	}
	g.emit(ctx, job, string(api.JobStatusFailed), message, 0)
	g.log.Warnw("job failed", "job_id", job.ID, "reason", message)
}

func (g *Generator) emit(ctx context.Context, job *model.Job, status, errMessage string, wordCount int) {
	if g.evProducer == nil {
		return
	}
	event := events.JobEvent{
		JobID:     job.ID.String(),
		OrgID:     job.OrgID,
		Status:    status,
		Error:     errMessage,
		WordCount: wordCount,
	}
	if err := g.evProducer.WriteJobEvent(ctx, event); err != nil {
		g.log.Warnw("failed to emit job event", "error", err, "job_id", job.ID)
	}
}

// encounter beats the synthesized script cycles through, per vertical
// register.
var beats = []string{
	"greets the customer and confirms the reason for the visit",
	"asks a clarifying question about %s",
	"explains the next step involving %s",
	"confirms understanding and repeats the key detail",
	"closes the encounter and offers further help",
}

// synthesize produces deterministic-shape content from the request. It
// weaves the selected vocabulary into sentence beats until the target
// length is reached, recording which terms were actually used.
func synthesize(request *api.JobRequest) *api.JobResult {
	terms := request.Vocabulary
	if len(terms) == 0 {
		terms = []string{request.Vertical}
	}

	density := 1
	switch request.Density {
	case "sparse":
		density = 2
	case "dense":
		density = 0
	}

	var (
		sentences  []string
		usedTerms  []string
		usedBrands []string
		used       = map[string]bool{}
		words      int
	)

	for i := 0; words < request.TargetLength; i++ {
		beat := beats[i%len(beats)]
		var sentence string
		if strings.Contains(beat, "%s") {
			term := terms[i%len(terms)]
			sentence = fmt.Sprintf("The speaker %s.", fmt.Sprintf(beat, term))
			if (density == 0 || i%(density+1) == 0) && !used[term] {
				used[term] = true
				// capitalized vocabulary entries are brand names
				if term != strings.ToLower(term) {
					usedBrands = append(usedBrands, term)
				} else {
					usedTerms = append(usedTerms, term)
				}
			}
		} else {
			sentence = fmt.Sprintf("The speaker %s.", beat)
		}
		sentences = append(sentences, sentence)
		words += len(strings.Fields(sentence))
	}

	return &api.JobResult{
		Content:     strings.Join(sentences, " "),
		WordCount:   words,
		UsedTerms:   usedTerms,
		UsedBrands:  usedBrands,
		GeneratedAt: time.Now().UTC(),
	}
}
