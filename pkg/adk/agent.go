package adk

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Parameter describes one string argument a tool accepts
type Parameter struct {
	Name        string
	Description string
	Required    bool
}

// Tool represents an executable action for the agent
type Tool interface {
	Name() string
	Description() string
	Parameters() []Parameter
	Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error)
}

// ToolCall represents a request from the LLM to execute a tool
type ToolCall struct {
	ToolName string
	Args     map[string]interface{}
}

// Message represents a chat message
type Message struct {
	Role    string // "user", "model", "function"
	Content string
}

// LLMProvider defines the interface for different AI models
type LLMProvider interface {
	GenerateResponse(ctx context.Context, history []Message, tools []Tool) (string, *ToolCall, error)
	ListModels(ctx context.Context) ([]string, error)
}

// maxToolRounds bounds the tool calls made while answering one message
const maxToolRounds = 16

// Agent is the core ADK agent
type Agent struct {
	llm     LLMProvider
	tools   map[string]Tool
	order   []string
	history []Message
	logger  *zap.Logger
}

// NewAgent creates a new agent with the given LLM provider
func NewAgent(llm LLMProvider, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		llm:    llm,
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

// RegisterTool adds a tool to the agent's registry
func (a *Agent) RegisterTool(t Tool) {
	if _, exists := a.tools[t.Name()]; !exists {
		a.order = append(a.order, t.Name())
	}
	a.tools[t.Name()] = t
}

// SetSystemPrompt seeds the history with instructions for the model
func (a *Agent) SetSystemPrompt(prompt string) {
	if len(a.history) > 0 && a.history[0].Role == "system" {
		a.history[0].Content = prompt
		return
	}
	a.history = append([]Message{{Role: "system", Content: prompt}}, a.history...)
}

// History returns a copy of the conversation so far
func (a *Agent) History() []Message {
	return append([]Message(nil), a.history...)
}

// Chat sends a message to the agent and returns the response
func (a *Agent) Chat(ctx context.Context, input string, progress func(string)) (string, error) {
	a.history = append(a.history, Message{Role: "user", Content: input})

	toolList := make([]Tool, 0, len(a.order))
	for _, name := range a.order {
		toolList = append(toolList, a.tools[name])
	}

	for round := 0; round < maxToolRounds; round++ {
		respText, toolCall, err := a.llm.GenerateResponse(ctx, a.history, toolList)
		if err != nil {
			return "", err
		}

		// If the model just replied with text, we are done
		if toolCall == nil {
			a.history = append(a.history, Message{Role: "model", Content: respText})
			return respText, nil
		}

		a.logger.Debug("executing tool", zap.String("tool", toolCall.ToolName), zap.Any("args", toolCall.Args))
		a.history = append(a.history, Message{
			Role:    "model",
			Content: fmt.Sprintf("I will call tool %s with args %v", toolCall.ToolName, toolCall.Args),
		})

		tool, exists := a.tools[toolCall.ToolName]
		if !exists {
			a.history = append(a.history, Message{Role: "function", Content: fmt.Sprintf("Error: Tool %s not found", toolCall.ToolName)})
			continue
		}

		result, err := tool.Execute(ctx, toolCall.Args, progress)
		if err != nil {
			a.logger.Warn("tool failed", zap.String("tool", toolCall.ToolName), zap.Error(err))
			result = fmt.Sprintf("Error executing tool: %v", err)
		}

		a.history = append(a.history, Message{
			Role:    "function",
			Content: fmt.Sprintf("Tool %s returned: %s", toolCall.ToolName, result),
		})
	}
	return "", fmt.Errorf("no answer after %d tool calls", maxToolRounds)
}
