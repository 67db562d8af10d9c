package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"openproject-gateway-go/internal/llm"
)

// State is the conversation's turn-taking state.
type State int

// Conversation states. Turns strictly alternate worker → reviewer until the
// sentinel phrase appears or the round bound is hit.
const (
	StateWorkerTurn State = iota
	StateReviewerTurn
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateWorkerTurn:
		return "worker-turn"
	case StateReviewerTurn:
		return "reviewer-turn"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// maxToolIterations bounds consecutive tool-call exchanges within one turn so
// a model stuck requesting tools cannot spin forever.
const maxToolIterations = 5

// Agent is one conversational participant.
type Agent struct {
	Name         string
	Model        string
	SystemPrompt string
	Client       *llm.Client
}

// Entry is one transcript line.
type Entry struct {
	ID      string          `json:"id"`
	Agent   string          `json:"agent"`
	Message llm.ChatMessage `json:"message"`
}

// Conversation drives a worker/reviewer pair through bounded sequential
// turns. It is not safe for concurrent use; agent turns never overlap by
// construction.
type Conversation struct {
	ID string

	worker   *Agent
	reviewer *Agent
	gateway  *GatewayClient
	tools    []llm.Tool

	maxTurns int
	sentinel string

	state      State
	transcript []Entry
	logger     *slog.Logger
}

// New creates a Conversation. maxTurns bounds the total number of agent turns
// (not worker/reviewer pairs); sentinel terminates the exchange when it
// appears in any message, compared case-insensitively.
func New(worker, reviewer *Agent, gateway *GatewayClient, maxTurns int, sentinel string, logger *slog.Logger) *Conversation {
	return &Conversation{
		ID:       uuid.NewString(),
		worker:   worker,
		reviewer: reviewer,
		gateway:  gateway,
		tools:    ToolDefinitions(),
		maxTurns: maxTurns,
		sentinel: sentinel,
		state:    StateWorkerTurn,
		logger:   logger.With("component", "conversation"),
	}
}

// State returns the current turn-taking state.
func (c *Conversation) State() State {
	return c.state
}

// Transcript returns the shared transcript accumulated so far.
func (c *Conversation) Transcript() []Entry {
	return c.transcript
}

// Run executes the conversation for the given task until the sentinel
// appears or the turn bound is exhausted, and returns the transcript.
func (c *Conversation) Run(ctx context.Context, task string) ([]Entry, error) {
	c.append("user", llm.ChatMessage{Role: "user", Content: task})

	for turn := 0; turn < c.maxTurns && c.state != StateTerminated; turn++ {
		agent := c.speaker()
		c.logger.Info("turn", "n", turn, "state", c.state.String(), "agent", agent.Name)

		content, err := c.takeTurn(ctx, agent)
		if err != nil {
			return c.transcript, fmt.Errorf("%s turn %d: %w", agent.Name, turn, err)
		}

		if c.isDone(content) {
			c.state = StateTerminated
			break
		}
		c.advance()
	}

	if c.state != StateTerminated {
		c.logger.Info("turn bound exhausted", "max_turns", c.maxTurns)
		c.state = StateTerminated
	}
	return c.transcript, nil
}

// speaker returns the agent whose turn it is.
func (c *Conversation) speaker() *Agent {
	if c.state == StateReviewerTurn {
		return c.reviewer
	}
	return c.worker
}

// advance moves to the other agent's turn.
func (c *Conversation) advance() {
	if c.state == StateWorkerTurn {
		c.state = StateReviewerTurn
	} else {
		c.state = StateWorkerTurn
	}
}

// isDone reports whether a message contains the sentinel phrase.
func (c *Conversation) isDone(content string) bool {
	return strings.Contains(strings.ToLower(content), strings.ToLower(c.sentinel))
}

// takeTurn runs one agent turn, executing requested tool calls inline until
// the agent produces plain content or the per-turn tool bound is hit.
// Returns the agent's final content for the turn.
func (c *Conversation) takeTurn(ctx context.Context, agent *Agent) (string, error) {
	messages := c.messagesFor(agent)

	for i := 0; i < maxToolIterations; i++ {
		resp, err := agent.Client.CreateChatCompletion(ctx, llm.ChatCompletionRequest{
			Model:    agent.Model,
			Messages: messages,
			Tools:    c.tools,
		})
		if err != nil {
			return "", err
		}

		msg := resp.Choices[0].Message
		msg.Name = agent.Name
		c.append(agent.Name, msg)
		messages = append(messages, msg)

		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}

		for _, tc := range msg.ToolCalls {
			result := c.executeTool(ctx, tc)
			toolMsg := llm.ChatMessage{
				Role:       "tool",
				ToolCallID: tc.ID,
				Content:    result,
			}
			c.append(agent.Name, toolMsg)
			messages = append(messages, toolMsg)
		}
	}

	return "", fmt.Errorf("tool iteration bound (%d) exceeded", maxToolIterations)
}

// executeTool dispatches one tool call to the gateway. Failures become
// ordinary tool results the agent must reason about; nothing is retried.
func (c *Conversation) executeTool(ctx context.Context, tc llm.ToolCall) string {
	c.logger.Info("tool call", "tool", tc.Function.Name)
	result, err := c.gateway.Call(ctx, tc.Function.Name, tc.Function.Arguments)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return result
}

// messagesFor builds the message list an agent sees: its own system prompt
// followed by the shared transcript. Other agents' assistant messages are
// presented as user messages so each model only ever sees one assistant
// voice — its own.
func (c *Conversation) messagesFor(agent *Agent) []llm.ChatMessage {
	messages := []llm.ChatMessage{{Role: "system", Content: agent.SystemPrompt}}
	for _, e := range c.transcript {
		m := e.Message
		if e.Agent != agent.Name {
			switch m.Role {
			case "assistant":
				m = llm.ChatMessage{Role: "user", Name: e.Agent, Content: m.Content}
			case "tool":
				// Another agent's tool results only make sense next to its
				// tool_calls, which this agent never sees.
				continue
			}
		}
		messages = append(messages, m)
	}
	return messages
}

func (c *Conversation) append(agentName string, msg llm.ChatMessage) {
	c.transcript = append(c.transcript, Entry{
		ID:      uuid.NewString(),
		Agent:   agentName,
		Message: msg,
	})
}
