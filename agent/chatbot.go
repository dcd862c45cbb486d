package agent

import (
	"github.com/hupe1980/tripmesh/core"
	"github.com/hupe1980/tripmesh/internal/util"
	"github.com/hupe1980/tripmesh/model"
)

// ChecklistToolName is the single tool surfaced to the chatbot model. The
// engine never executes it in-process; a call is handed to the background
// pipeline by the runner.
const ChecklistToolName = "generate_checklist"

// checklistArgs is the schema for the generate_checklist tool call.
type checklistArgs struct {
	Destination string `json:"destination,omitempty" description:"Trip destination (city or country)"`
	Duration    string `json:"duration,omitempty"    description:"Trip duration, e.g. '5 days'"`
	Notes       string `json:"notes,omitempty"       description:"Extra context worth reflecting in the checklist"`
}

const chatbotInstructions = `You are a friendly travel assistant. Help the user plan trips,
answer travel questions and keep the conversation grounded in what they told you so far.
When the user asks for a packing or preparation checklist, call the generate_checklist tool
instead of writing the checklist yourself.`

// ChatbotOptions configures a Chatbot instance.
type ChatbotOptions struct {
	Instructions string
}

// Chatbot is the default conversational agent. It streams its reply as
// text-delta events and surfaces the generate_checklist tool to the model.
type Chatbot struct {
	llm     model.Model
	opts    ChatbotOptions
	toolDef model.ToolDefinition
}

// NewChatbot constructs a chatbot backed by the given model.
func NewChatbot(llm model.Model, optFns ...func(o *ChatbotOptions)) *Chatbot {
	opts := ChatbotOptions{Instructions: chatbotInstructions}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Chatbot{
		llm:  llm,
		opts: opts,
		toolDef: model.ToolDefinition{
			Name:        ChecklistToolName,
			Description: "Generate a personalized travel preparation checklist in the background",
			Parameters:  util.CreateSchema(checklistArgs{}),
		},
	}
}

// Name implements Agent.
func (c *Chatbot) Name() string { return "chatbot" }

// Invoke implements Agent. Returns ToolCallOutcome when the model called the
// checklist tool, otherwise TextOutcome with the accumulated reply.
func (c *Chatbot) Invoke(inv *core.Invocation) (core.Outcome, error) {
	req := model.Request{
		Instructions: c.opts.Instructions,
		History:      inv.History,
		Tools:        []model.ToolDefinition{c.toolDef},
		Stream:       true,
	}

	resp, err := generate(inv, c.llm, req, true)
	if err != nil {
		return nil, err
	}

	for _, tc := range resp.ToolCalls {
		if tc.Name == ChecklistToolName {
			inv.LogInfo("chatbot requested checklist generation", "tool", tc.Name)
			return core.ToolCallOutcome{Name: tc.Name, Arguments: tc.Arguments}, nil
		}
	}

	return core.TextOutcome{Text: resp.Text}, nil
}
