package orchestrator

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"openproject-gateway-go/internal/llm"
)

// scriptedLLM serves canned chat-completion responses in order and records
// every request body it receives.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []llm.ChatMessage
	requests  []llm.ChatCompletionRequest
	srv       *httptest.Server
}

func newScriptedLLM(t *testing.T, responses ...llm.ChatMessage) *scriptedLLM {
	t.Helper()
	s := &scriptedLLM{responses: responses}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		var req llm.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode completion request: %v", err)
		}
		s.requests = append(s.requests, req)

		if len(s.responses) == 0 {
			t.Error("scripted LLM ran out of responses")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		msg := s.responses[0]
		s.responses = s.responses[1:]

		resp := llm.ChatCompletionResponse{
			Choices: []llm.Choice{{Message: msg, FinishReason: "stop"}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *scriptedLLM) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func assistant(content string) llm.ChatMessage {
	return llm.ChatMessage{Role: "assistant", Content: content}
}

func toolCallMsg(id, name, args string) llm.ChatMessage {
	return llm.ChatMessage{
		Role: "assistant",
		ToolCalls: []llm.ToolCall{{
			ID:   id,
			Type: "function",
			Function: llm.ToolCallFunction{Name: name, Arguments: args},
		}},
	}
}

func testAgents(t *testing.T, s *scriptedLLM) (*Agent, *Agent, *slog.Logger) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := llm.NewClient(s.srv.URL, "", logger)
	worker := &Agent{Name: "worker", Model: "m1", SystemPrompt: "do the task", Client: client}
	reviewer := &Agent{Name: "reviewer", Model: "m2", SystemPrompt: "review the work", Client: client}
	return worker, reviewer, logger
}

func TestRun_SentinelTerminates(t *testing.T) {
	s := newScriptedLLM(t,
		assistant("All done. TASK COMPLETE."),
	)
	worker, reviewer, logger := testAgents(t, s)
	conv := New(worker, reviewer, NewGatewayClient("http://127.0.0.1:1"), 10, "TASK COMPLETE", logger)

	transcript, err := conv.Run(context.Background(), "create a project")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if conv.State() != StateTerminated {
		t.Errorf("state = %v, want terminated", conv.State())
	}
	if got := s.requestCount(); got != 1 {
		t.Errorf("completion requests = %d, want 1 (sentinel ends the exchange)", got)
	}
	// Transcript: user task + worker reply.
	if len(transcript) != 2 {
		t.Fatalf("transcript entries = %d, want 2", len(transcript))
	}
	if transcript[1].Agent != "worker" {
		t.Errorf("entry agent = %q, want worker", transcript[1].Agent)
	}
}

func TestRun_SentinelCaseInsensitive(t *testing.T) {
	s := newScriptedLLM(t,
		assistant("ok, task complete"),
	)
	worker, reviewer, logger := testAgents(t, s)
	conv := New(worker, reviewer, NewGatewayClient("http://127.0.0.1:1"), 10, "TASK COMPLETE", logger)

	if _, err := conv.Run(context.Background(), "do it"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := s.requestCount(); got != 1 {
		t.Errorf("completion requests = %d, want 1", got)
	}
}

func TestRun_TurnBoundExhausted(t *testing.T) {
	s := newScriptedLLM(t,
		assistant("working on it"),
		assistant("needs more"),
		assistant("still working"),
		assistant("still reviewing"),
	)
	worker, reviewer, logger := testAgents(t, s)
	conv := New(worker, reviewer, NewGatewayClient("http://127.0.0.1:1"), 4, "TASK COMPLETE", logger)

	transcript, err := conv.Run(context.Background(), "never-ending task")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if conv.State() != StateTerminated {
		t.Errorf("state = %v, want terminated after exhausting turns", conv.State())
	}
	if got := s.requestCount(); got != 4 {
		t.Errorf("completion requests = %d, want 4", got)
	}
	// Turns alternate worker, reviewer, worker, reviewer.
	wantAgents := []string{"worker", "reviewer", "worker", "reviewer"}
	for i, want := range wantAgents {
		if got := transcript[i+1].Agent; got != want {
			t.Errorf("turn %d agent = %q, want %q", i, got, want)
		}
	}
}

func TestRun_ToolCallAgainstGateway(t *testing.T) {
	var gatewayPath string
	var gatewayBody []byte
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gatewayPath = r.URL.Path
		gatewayBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"_type":"Collection","count":0}`))
	}))
	defer gw.Close()

	s := newScriptedLLM(t,
		toolCallMsg("call_1", "list_projects", `{}`),
		assistant("no projects yet. TASK COMPLETE"),
	)
	worker, reviewer, logger := testAgents(t, s)
	conv := New(worker, reviewer, NewGatewayClient(gw.URL), 10, "TASK COMPLETE", logger)

	transcript, err := conv.Run(context.Background(), "list the projects")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if gatewayPath != "/list_projects" {
		t.Errorf("gateway path = %q, want /list_projects", gatewayPath)
	}
	if string(gatewayBody) != "{}" {
		t.Errorf("gateway body = %q, want {}", gatewayBody)
	}

	// Transcript: task, tool-call message, tool result, final answer.
	if len(transcript) != 4 {
		t.Fatalf("transcript entries = %d, want 4", len(transcript))
	}
	toolEntry := transcript[2]
	if toolEntry.Message.Role != "tool" || toolEntry.Message.ToolCallID != "call_1" {
		t.Errorf("tool entry = %+v", toolEntry.Message)
	}
	if !strings.Contains(toolEntry.Message.Content, "Collection") {
		t.Errorf("tool result = %q, want gateway envelope verbatim", toolEntry.Message.Content)
	}
}

func TestRun_UnknownToolBecomesToolResult(t *testing.T) {
	s := newScriptedLLM(t,
		toolCallMsg("call_1", "delete_everything", `{}`),
		assistant("that tool does not exist. TASK COMPLETE"),
	)
	worker, reviewer, logger := testAgents(t, s)
	conv := New(worker, reviewer, NewGatewayClient("http://127.0.0.1:1"), 10, "TASK COMPLETE", logger)

	transcript, err := conv.Run(context.Background(), "wipe the instance")
	if err != nil {
		t.Fatalf("Run() error = %v; tool failures must stay inside the turn", err)
	}
	toolEntry := transcript[2]
	if toolEntry.Message.Role != "tool" {
		t.Fatalf("entry role = %q, want tool", toolEntry.Message.Role)
	}
	if !strings.Contains(toolEntry.Message.Content, "unknown tool") {
		t.Errorf("tool result = %q, want unknown-tool error text", toolEntry.Message.Content)
	}
}

func TestRun_ToolIterationBound(t *testing.T) {
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer gw.Close()

	// The agent requests tools forever; the per-turn bound must cut it off.
	responses := make([]llm.ChatMessage, 0, maxToolIterations)
	for i := 0; i < maxToolIterations; i++ {
		responses = append(responses, toolCallMsg("call_x", "list_statuses", `{}`))
	}
	s := newScriptedLLM(t, responses...)
	worker, reviewer, logger := testAgents(t, s)
	conv := New(worker, reviewer, NewGatewayClient(gw.URL), 10, "TASK COMPLETE", logger)

	_, err := conv.Run(context.Background(), "loop forever")
	if err == nil {
		t.Fatal("Run() expected error after tool iteration bound")
	}
	if !strings.Contains(err.Error(), "tool iteration bound") {
		t.Errorf("error = %v", err)
	}
	if got := s.requestCount(); got != maxToolIterations {
		t.Errorf("completion requests = %d, want %d", got, maxToolIterations)
	}
}

func TestMessagesFor_OtherAgentBecomesUser(t *testing.T) {
	s := newScriptedLLM(t,
		assistant("created the project"),
		assistant("looks good. TASK COMPLETE"),
	)
	worker, reviewer, logger := testAgents(t, s)
	conv := New(worker, reviewer, NewGatewayClient("http://127.0.0.1:1"), 10, "TASK COMPLETE", logger)

	if _, err := conv.Run(context.Background(), "create project X"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Second request is the reviewer's view of the transcript.
	if s.requestCount() != 2 {
		t.Fatalf("completion requests = %d, want 2", s.requestCount())
	}
	reviewerView := s.requests[1].Messages

	if reviewerView[0].Role != "system" || reviewerView[0].Content != "review the work" {
		t.Errorf("first message = %+v, want the reviewer's own system prompt", reviewerView[0])
	}
	var sawWorkerAsUser bool
	for _, m := range reviewerView {
		if m.Role == "assistant" {
			t.Errorf("reviewer sees a foreign assistant message: %+v", m)
		}
		if m.Role == "user" && m.Name == "worker" {
			sawWorkerAsUser = true
		}
	}
	if !sawWorkerAsUser {
		t.Error("worker's message not presented to the reviewer as a named user message")
	}
}
