// Package tripmesh provides a high-level façade over the routing runner and
// the background checklist pipeline. Most applications interact with this
// package by:
//  1. Creating a TripMesh via New() with at least a chat model
//  2. Running turns asynchronously (Run) or synchronously (RunSync)
//  3. Polling TaskStatus for checklists that outlive the request stream
//
// The façade delegates orchestration to runner.Runner while keeping setup
// ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a durable task store and
// a structured logger.
package tripmesh

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/tripmesh/agent"
	"github.com/hupe1980/tripmesh/core"
	"github.com/hupe1980/tripmesh/logging"
	"github.com/hupe1980/tripmesh/model"
	"github.com/hupe1980/tripmesh/retrieval"
	"github.com/hupe1980/tripmesh/router"
	"github.com/hupe1980/tripmesh/runner"
	"github.com/hupe1980/tripmesh/task"
	"github.com/hupe1980/tripmesh/websearch"
)

// Options configures the TripMesh instance.
type Options struct {
	// ChatModel backs the chatbot, retrieval, summarize and reflect agents.
	// Required.
	ChatModel model.Model
	// JudgeModel optionally enables model-backed routing; the deterministic
	// judge runs without it.
	JudgeModel model.Model
	// TaskModel backs the background generation/extraction stages. Defaults
	// to ChatModel.
	TaskModel model.Model
	// TitleModel backs GenerateTitle. Defaults to none (prefix fallback).
	TitleModel model.Model

	// Searcher is the web search capability. Defaults to an empty static
	// searcher.
	Searcher core.WebSearcher
	// Retriever is the document retrieval capability. Defaults to an empty
	// in-memory retriever.
	Retriever core.Retriever
	// TaskStore persists background task state. Defaults to the in-memory
	// store with 1h retention.
	TaskStore task.Store

	// RouterConfig tunes routing. Defaults to router.DefaultConfig().
	RouterConfig router.Config
	// TrimTokens bounds history per turn.
	TrimTokens int
	// TaskWorkers sizes the background worker pool.
	TaskWorkers int
	// PollInterval and PollMaxWait tune result polling on the request path.
	PollInterval time.Duration
	PollMaxWait  time.Duration

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// TripMesh is the high-level façade aggregating the runner, router and
// background pipeline.
type TripMesh struct {
	opts     Options
	runner   *runner.Runner
	pipeline *task.Pipeline
	store    task.Store
}

// New creates a TripMesh instance with optional overrides and starts the
// background pipeline. Call Shutdown to drain it.
func New(optFns ...func(o *Options)) (*TripMesh, error) {
	opts := Options{
		RouterConfig: router.DefaultConfig(),
		TrimTokens:   16000,
		TaskWorkers:  2,
		PollInterval: time.Second,
		PollMaxWait:  30 * time.Second,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.ChatModel == nil {
		return nil, errors.New("chat model is required")
	}

	if opts.Searcher == nil {
		opts.Searcher = websearch.NewStaticSearcher()
	}
	if opts.Retriever == nil {
		opts.Retriever = retrieval.NewInMemoryRetriever()
	}
	if opts.TaskStore == nil {
		opts.TaskStore = task.NewInMemoryStore()
	}
	if opts.TaskModel == nil {
		opts.TaskModel = opts.ChatModel
	}

	rt, err := router.New(opts.RouterConfig, router.Agents{
		Judge:     agent.NewJudge(func(o *agent.JudgeOptions) { o.Model = opts.JudgeModel }),
		Chatbot:   agent.NewChatbot(opts.ChatModel),
		Retrieval: agent.NewRetrieval(opts.ChatModel, opts.Retriever),
		Search: agent.NewSearch(opts.Searcher, func(o *agent.SearchOptions) {
			o.ConfidenceThreshold = opts.RouterConfig.ConfidenceThreshold
		}),
		Summarize: agent.NewSummarize(opts.ChatModel),
		Reflect:   agent.NewReflect(opts.ChatModel),
	})
	if err != nil {
		return nil, err
	}

	pipeline := task.NewPipeline(opts.TaskStore, opts.TaskModel, opts.TaskModel, func(o *task.PipelineOptions) {
		o.Searcher = opts.Searcher
		o.Logger = opts.Logger
	})
	if err := pipeline.Start(opts.TaskWorkers); err != nil {
		return nil, err
	}

	run := runner.New(rt, pipeline, opts.TaskStore, func(o *runner.Options) {
		o.TrimTokens = opts.TrimTokens
		o.PollInterval = opts.PollInterval
		o.PollMaxWait = opts.PollMaxWait
		o.TitleModel = opts.TitleModel
		o.Logger = opts.Logger
	})

	return &TripMesh{opts: opts, runner: run, pipeline: pipeline, store: opts.TaskStore}, nil
}

// Run starts an asynchronous turn returning event & error channels.
func (m *TripMesh) Run(
	ctx context.Context,
	threadID string,
	conversation core.Conversation,
) (<-chan core.Event, <-chan error, error) {
	return m.runner.Run(ctx, threadID, conversation)
}

// RunSync is a synchronous helper that drains the async channels and returns
// the terminal reply text with all collected events.
func (m *TripMesh) RunSync(
	ctx context.Context,
	threadID string,
	conversation core.Conversation,
) (string, []core.Event, error) {
	return m.runner.RunSync(ctx, threadID, conversation)
}

// TaskStatus returns the state of a background checklist task.
func (m *TripMesh) TaskStatus(ctx context.Context, id string) (task.Task, error) {
	return m.runner.TaskStatus(ctx, id)
}

// GenerateTitle produces a short thread title from the first user message.
func (m *TripMesh) GenerateTitle(ctx context.Context, firstMessage string) string {
	return m.runner.GenerateTitle(ctx, firstMessage)
}

// Shutdown drains the background pipeline, waiting at most timeout for
// in-flight tasks.
func (m *TripMesh) Shutdown(timeout time.Duration) error {
	return m.pipeline.Shutdown(timeout)
}
