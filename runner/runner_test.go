package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/tripmesh/agent"
	"github.com/hupe1980/tripmesh/checklist"
	"github.com/hupe1980/tripmesh/core"
	"github.com/hupe1980/tripmesh/model"
	"github.com/hupe1980/tripmesh/router"
	"github.com/hupe1980/tripmesh/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validGeneration = `{
	"title": "Lisbon Move Prep",
	"summary": "Everything before the move",
	"destination": "Lisbon",
	"duration": "6 months",
	"stay_type": "medium-term",
	"items": [{"title": "Find apartment", "importance": "high", "due_days": 14, "order": 0}]
}`

type slowSearcher struct{ delay time.Duration }

func (s *slowSearcher) Search(ctx context.Context, query string) (core.SearchOutput, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return core.SearchOutput{}, ctx.Err()
	}
	return core.SearchOutput{Query: query}, nil
}

type runnerFixture struct {
	runner *Runner
	store  *task.InMemoryStore
}

func newRunnerFixture(t *testing.T, chatModel, taskModel model.Model, optFns ...func(o *task.PipelineOptions)) *runnerFixture {
	t.Helper()

	rt, err := router.New(router.DefaultConfig(), router.Agents{
		Judge:   agent.NewJudge(),
		Chatbot: agent.NewChatbot(chatModel),
	})
	require.NoError(t, err)

	store := task.NewInMemoryStore()
	t.Cleanup(store.Close)

	pipeline := task.NewPipeline(store, taskModel, taskModel, optFns...)
	require.NoError(t, pipeline.Start(1))
	t.Cleanup(func() { _ = pipeline.Shutdown(2 * time.Second) })

	r := New(rt, pipeline, store, func(o *Options) {
		o.PollInterval = 5 * time.Millisecond
		o.PollMaxWait = 2 * time.Second
	})

	return &runnerFixture{runner: r, store: store}
}

func eventTypes(events []core.Event) []core.EventType {
	types := make([]core.EventType, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}

func TestRunner_TextTurn(t *testing.T) {
	chatModel := model.NewMockModel("mock", "mock")
	chatModel.AddResponse("hi, planning a trip to Japan", "Sounds great! When are you going?")
	f := newRunnerFixture(t, chatModel, model.NewMockModel("mock", "mock"))

	conversation := core.Conversation{core.NewHumanTurn("hi, planning a trip to Japan")}
	text, events, err := f.runner.RunSync(context.Background(), "th-1", conversation)
	require.NoError(t, err)

	assert.Equal(t, "Sounds great! When are you going?", text)

	// Exactly one terminal event, at the end, with gapless sequence numbers.
	require.NotEmpty(t, events)
	for i, ev := range events {
		assert.Equal(t, uint64(i+1), ev.Sequence)
		assert.Equal(t, i == len(events)-1, ev.IsTerminal(), "only the last event is terminal")
	}

	streamed := ""
	for _, ev := range events {
		if ev.Type == core.EventTextDelta {
			streamed += ev.Delta
		}
	}
	assert.Equal(t, text, streamed, "deltas reassemble the terminal text")

	assert.Contains(t, eventTypes(events), core.EventNodeComplete, "judge decision is surfaced")
}

func TestRunner_ChecklistTurn(t *testing.T) {
	message := "please prepare a checklist for my move to Lisbon"

	chatModel := model.NewMockModel("mock", "mock")
	chatModel.AddToolCall(message, agent.ChecklistToolName, `{"destination":"Lisbon"}`)

	taskModel := model.NewMockModel("mock", "mock")
	taskModel.AddResponse(message, validGeneration)

	f := newRunnerFixture(t, chatModel, taskModel)

	text, events, err := f.runner.RunSync(context.Background(), "th-1", core.Conversation{core.NewHumanTurn(message)})
	require.NoError(t, err)
	assert.Equal(t, taskAckReply, text)

	types := eventTypes(events)
	assert.Contains(t, types, core.EventTaskSubmitted)
	assert.Contains(t, types, core.EventTaskPending)
	assert.Contains(t, types, core.EventTaskResult)
	assert.NotContains(t, types, core.EventTaskError)

	var taskID string
	var pendingID, resultID string
	for _, ev := range events {
		switch ev.Type {
		case core.EventTaskSubmitted:
			taskID = ev.TaskID
		case core.EventTaskPending:
			banner := ev.Payload.(*checklist.Checklist)
			pendingID = banner.ID
			assert.Equal(t, checklist.StatusGenerating, banner.Status)
		case core.EventTaskResult:
			result := ev.Payload.(*checklist.Checklist)
			resultID = result.ID
			assert.Equal(t, "Lisbon Move Prep", result.Title)
		}
	}
	require.NotEmpty(t, taskID)
	assert.Equal(t, pendingID, resultID, "the final checklist replaces the pending banner in place")
	assert.Equal(t, checklist.StableID(taskID), resultID)

	// The finished task stays pollable after the turn.
	stored, err := f.runner.TaskStatus(context.Background(), taskID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusSuccess, stored.Status)
}

func TestRunner_ChecklistFailureEmitsTaskError(t *testing.T) {
	message := "please prepare a checklist for my move to Lisbon"

	chatModel := model.NewMockModel("mock", "mock")
	chatModel.AddToolCall(message, agent.ChecklistToolName, `{}`)

	taskModel := model.NewMockModel("mock", "mock")
	taskModel.AddResponse(message, `not a checklist`)

	f := newRunnerFixture(t, chatModel, taskModel)

	text, events, err := f.runner.RunSync(context.Background(), "th-1", core.Conversation{core.NewHumanTurn(message)})
	require.NoError(t, err, "a failed task is not a failed turn")
	assert.Equal(t, taskAckReply, text)

	types := eventTypes(events)
	assert.Contains(t, types, core.EventTaskError)
	assert.NotContains(t, types, core.EventTaskResult)
}

func TestRunner_SlowTaskReportsPendingTwice(t *testing.T) {
	message := "please prepare a checklist for my move to Lisbon"

	chatModel := model.NewMockModel("mock", "mock")
	chatModel.AddToolCall(message, agent.ChecklistToolName, `{}`)

	taskModel := model.NewMockModel("mock", "mock")
	taskModel.AddResponse(message, validGeneration)

	f := newRunnerFixture(t, chatModel, taskModel, func(o *task.PipelineOptions) {
		o.Searcher = &slowSearcher{delay: 300 * time.Millisecond}
	})
	f.runner.poller = task.NewPoller(f.store, func(o *task.PollerOptions) {
		o.Interval = 5 * time.Millisecond
		o.MaxWait = 30 * time.Millisecond
	})

	text, events, err := f.runner.RunSync(context.Background(), "th-1", core.Conversation{core.NewHumanTurn(message)})
	require.NoError(t, err)
	assert.Equal(t, taskAckReply, text)

	pending := 0
	for _, ev := range events {
		if ev.Type == core.EventTaskPending {
			pending++
		}
	}
	assert.Equal(t, 2, pending, "timed-out wait re-notifies pending instead of failing")

	types := eventTypes(events)
	assert.NotContains(t, types, core.EventTaskResult)
	assert.NotContains(t, types, core.EventTaskError)
}

func TestRunner_NodeFailureTerminatesWithError(t *testing.T) {
	chatModel := model.NewMockModel("mock", "mock")
	chatModel.AddFailure("hello", errors.New("model down"))
	f := newRunnerFixture(t, chatModel, model.NewMockModel("mock", "mock"))

	_, events, err := f.runner.RunSync(context.Background(), "th-1", core.Conversation{core.NewHumanTurn("hello")})
	require.Error(t, err)

	errorEvents := 0
	for _, ev := range events {
		if ev.Type == core.EventError {
			errorEvents++
			assert.Contains(t, ev.Reason, "model down")
		}
	}
	assert.Equal(t, 1, errorEvents, "exactly one terminal error event")
}

func TestRunner_EmptyConversation(t *testing.T) {
	f := newRunnerFixture(t, model.NewMockModel("mock", "mock"), model.NewMockModel("mock", "mock"))

	_, _, err := f.runner.Run(context.Background(), "th-1", nil)
	assert.Error(t, err)
}

func TestGenerateTitle(t *testing.T) {
	titleModel := model.NewMockModel("mock", "mock")
	titleModel.AddResponse("planning a move to lisbon", `"Lisbon Move Planning."`)

	chatModel := model.NewMockModel("mock", "mock")
	f := newRunnerFixture(t, chatModel, model.NewMockModel("mock", "mock"))
	f.runner.titleModel = titleModel

	title := f.runner.GenerateTitle(context.Background(), "planning a move to lisbon")
	assert.Equal(t, "Lisbon Move Planning", title, "quotes and trailing punctuation are stripped")
}

func TestGenerateTitle_FallsBackWithoutModel(t *testing.T) {
	f := newRunnerFixture(t, model.NewMockModel("mock", "mock"), model.NewMockModel("mock", "mock"))

	long := "I am planning a very long and complicated relocation from Toronto to Lisbon next spring"
	title := f.runner.GenerateTitle(context.Background(), long)
	assert.LessOrEqual(t, len(title), titleMaxLen+len("…"))
	assert.Contains(t, title, "…", "long fallbacks are cut at a word boundary")

	assert.Equal(t, "New conversation", f.runner.GenerateTitle(context.Background(), "   "))
}

func TestGenerateTitle_ModelFailureFallsBack(t *testing.T) {
	titleModel := model.NewMockModel("mock", "mock")
	titleModel.AddFailure("short trip", errors.New("unavailable"))

	f := newRunnerFixture(t, model.NewMockModel("mock", "mock"), model.NewMockModel("mock", "mock"))
	f.runner.titleModel = titleModel

	assert.Equal(t, "short trip", f.runner.GenerateTitle(context.Background(), "short trip"))
}
