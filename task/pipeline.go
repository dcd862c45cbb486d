package task

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/tripmesh/checklist"
	"github.com/hupe1980/tripmesh/core"
	"github.com/hupe1980/tripmesh/logging"
	"github.com/hupe1980/tripmesh/model"
)

const generationInstructions = `You create travel preparation checklists. Using the conversation
and any research notes, produce a single JSON object with this exact shape:
{"title": "...", "summary": "...", "destination": "...", "duration": "...",
 "stay_type": "short-term|medium-term|long-term", "city_code": "...",
 "items": [{"title": "...", "description": "...", "importance": "high|medium|low",
            "due_days": 0, "category": "...", "order": 0}]}
due_days counts days from today until the item should be done. Output only the JSON object.`

const extractionInstructions = `Extract trip metadata from the conversation. Respond with a single
JSON object: {"destination": "...", "duration": "...",
"stay_type": "short-term|medium-term|long-term", "city_code": "..."}.
Use empty strings for anything the conversation does not state. Output only the JSON object.`

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	// Workers is the size of the worker pool.
	Workers int
	// QueueSize bounds the job buffer.
	QueueSize int
	// Searcher optionally enriches generation with web snippets. Search
	// failures degrade gracefully: the stage proceeds without snippets.
	Searcher core.WebSearcher
	// Logger receives pipeline stage logs.
	Logger logging.Logger
}

// Pipeline runs the two-stage checklist generation flow on a worker pool
// detached from request lifetimes. Stage one generates the checklist body
// under a JSON schema; a schema violation fails the task and stage two never
// runs. Stage two extracts trip metadata and finalizes due dates and enums.
type Pipeline struct {
	store     Store
	generator model.Model
	extractor model.Model
	queue     *Queue
	searcher  core.WebSearcher
	logger    logging.Logger
}

// NewPipeline constructs a pipeline over the given store and models.
// Generator and extractor may be the same model.
func NewPipeline(store Store, generator, extractor model.Model, optFns ...func(o *PipelineOptions)) *Pipeline {
	opts := PipelineOptions{
		Workers:   2,
		QueueSize: 64,
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Pipeline{
		store:     store,
		generator: generator,
		extractor: extractor,
		queue:     NewQueue(opts.QueueSize),
		searcher:  opts.Searcher,
		logger:    opts.Logger,
	}
}

// Start launches the worker pool under a detached background context so
// submitted tasks outlive the requests that created them.
func (p *Pipeline) Start(workers int) error {
	return p.queue.Start(context.Background(), workers)
}

// Shutdown drains the queue, waiting at most timeout for in-flight work.
func (p *Pipeline) Shutdown(timeout time.Duration) error {
	return p.queue.Stop(timeout)
}

// Submit registers a PENDING task for the captured conversation and enqueues
// it. The ctx only guards the submission itself; the job runs under the
// queue's detached context.
func (p *Pipeline) Submit(ctx context.Context, threadID string, conversation core.Conversation) (Handle, error) {
	id := core.NewID()
	now := time.Now()

	t := Task{
		ID:        id,
		ThreadID:  threadID,
		Status:    StatusPending,
		Input:     conversation.Clone(),
		CreatedAt: now,
	}
	if err := p.store.Put(ctx, t); err != nil {
		return Handle{}, core.NewUpstreamError("task-store", err)
	}

	err := p.queue.Enqueue(ctx, Job{
		ID: id,
		Run: func(jobCtx context.Context) error {
			return p.process(jobCtx, id, threadID, conversation.Clone())
		},
	})
	if err != nil {
		reason := fmt.Sprintf("enqueue failed: %v", err)
		if ferr := p.store.SetFailure(ctx, id, reason); ferr != nil {
			p.logger.Warn("could not record enqueue failure", "task_id", id, "error", ferr.Error())
		}
		return Handle{}, core.NewUpstreamError("task-queue", err)
	}

	p.logger.Info("task submitted", "task_id", id, "thread_id", threadID)

	return Handle{ID: id}, nil
}

// process runs both pipeline stages for one task.
func (p *Pipeline) process(ctx context.Context, id, threadID string, conversation core.Conversation) error {
	if err := p.store.SetRunning(ctx, id); err != nil {
		p.logger.Warn("task vanished before start", "task_id", id, "error", err.Error())
		return err
	}

	generated, err := p.generationStage(ctx, id, conversation)
	if err != nil {
		p.fail(ctx, id, err)
		return err
	}

	md := p.extractionStage(ctx, id, conversation)

	result := checklist.Build(checklist.StableID(id), threadID, generated, md, time.Now())
	if err := p.store.SetSuccess(ctx, id, result); err != nil {
		p.logger.Warn("could not record task success", "task_id", id, "error", err.Error())
		return err
	}

	p.logger.Info("task completed", "task_id", id, "items", len(result.Items))

	return nil
}

// generationStage produces the validated checklist body. Search context is
// best-effort; the model call and schema validation are not.
func (p *Pipeline) generationStage(ctx context.Context, id string, conversation core.Conversation) (*checklist.Generated, error) {
	start := time.Now()

	instructions := generationInstructions
	if notes := p.searchNotes(ctx, id, conversation); notes != "" {
		instructions += "\n\nResearch notes:\n" + notes
	}

	resp, err := p.complete(ctx, p.generator, model.Request{
		Instructions: instructions,
		History:      conversation,
		ForceJSON:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("generation model: %w", err)
	}

	generated, err := checklist.ParseGenerated([]byte(resp.Text))
	if err != nil {
		return nil, err
	}

	p.logger.Info("generation stage completed", "task_id", id, "duration", time.Since(start).String(), "items", len(generated.Items))

	return generated, nil
}

// searchNotes fetches web context for the generation stage. Any failure is
// logged and swallowed.
func (p *Pipeline) searchNotes(ctx context.Context, id string, conversation core.Conversation) string {
	if p.searcher == nil {
		return ""
	}

	query := ""
	if t, ok := conversation.LastHuman(); ok {
		query = t.Content
	}
	if strings.TrimSpace(query) == "" {
		return ""
	}

	out, err := p.searcher.Search(ctx, query)
	if err != nil {
		p.logger.Warn("websearch failed, generating without snippets", "task_id", id, "error", err.Error())
		return ""
	}

	var b strings.Builder
	for i, sn := range out.Snippets {
		fmt.Fprintf(&b, "[%d] %s: %s\n", i+1, sn.Title, strings.TrimSpace(sn.Content))
	}

	return b.String()
}

// extractionStage pulls trip metadata. A model failure or malformed payload
// degrades to nil metadata rather than failing a task whose checklist body
// already validated.
func (p *Pipeline) extractionStage(ctx context.Context, id string, conversation core.Conversation) *checklist.Metadata {
	start := time.Now()

	resp, err := p.complete(ctx, p.extractor, model.Request{
		Instructions: extractionInstructions,
		History:      conversation,
		ForceJSON:    true,
	})
	if err != nil {
		p.logger.Warn("extraction model failed, keeping generated metadata", "task_id", id, "error", err.Error())
		return nil
	}

	var md checklist.Metadata
	if err := json.Unmarshal([]byte(resp.Text), &md); err != nil {
		p.logger.Warn("extraction payload malformed, keeping generated metadata", "task_id", id, "error", err.Error())
		return nil
	}

	p.logger.Info("extraction stage completed", "task_id", id, "duration", time.Since(start).String())

	return &md
}

func (p *Pipeline) fail(ctx context.Context, id string, cause error) {
	if err := p.store.SetFailure(ctx, id, cause.Error()); err != nil {
		p.logger.Warn("could not record task failure", "task_id", id, "error", err.Error())
	}
	p.logger.Error("task failed", "task_id", id, "error", cause.Error())
}

// complete drives one non-streaming model call to its final response.
func (p *Pipeline) complete(ctx context.Context, m model.Model, req model.Request) (*model.Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var final *model.Response
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				continue
			}
			r := resp
			final = &r
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		}
	}

	if final == nil {
		return nil, fmt.Errorf("model stream ended without a final response")
	}

	return final, nil
}
