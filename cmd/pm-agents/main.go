// Command pm-agents runs a worker/reviewer agent pair against a running
// gateway. The worker executes project-management tasks through the gateway's
// tool routes; the reviewer critiques each step until the worker declares the
// task complete or the round bound is exhausted.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"openproject-gateway-go/internal/llm"
	"openproject-gateway-go/internal/orchestrator"
)

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Task []string `kong:"arg,optional,help='Task description. Reads stdin when omitted.'"`

	GatewayURL string `kong:"default='http://127.0.0.1:8000',help='Base URL of the running gateway.',env='GATEWAY_URL'"`

	LLMBaseURL    string `kong:"default='https://api.openai.com/v1',help='OpenAI-compatible API base URL.',env='LLM_BASE_URL'"`
	LLMAPIKey     string `kong:"help='API key for the completion endpoint.',env='LLM_API_KEY'"`
	WorkerModel   string `kong:"default='gpt-4o',help='Model for the worker agent.',env='WORKER_MODEL'"`
	ReviewerModel string `kong:"default='gpt-4o-mini',help='Model for the reviewer agent.',env='REVIEWER_MODEL'"`

	MaxRounds int    `kong:"default='10',help='Maximum total agent turns before forced stop.',env='MAX_ROUNDS'"`
	Sentinel  string `kong:"default='TASK COMPLETE',help='Phrase that terminates the conversation.',env='SENTINEL'"`
	LogLevel  string `kong:"default='info',help='Log level: debug|info|warn|error.',env='LOG_LEVEL'"`
}

const workerPrompt = `You are a project management assistant working against an OpenProject
instance through the provided tools. Break the task into concrete steps, call
tools to carry them out, and report what you did after each step. Before
updating a work package, always view it first to obtain its current
lockVersion. When the whole task is finished and verified, say TASK COMPLETE.`

const reviewerPrompt = `You are a meticulous reviewer of a project management assistant. Inspect
the worker's latest actions using the available read-only tools, point out
mistakes or missing steps, and demand fixes. Be brief. If everything the task
required has been done correctly, reply with exactly TASK COMPLETE.`

func main() {
	// Best effort; absent .env is the normal case in production.
	_ = godotenv.Load()

	var cli CLI
	kong.Parse(&cli,
		kong.Name("pm-agents"),
		kong.Description("Worker/reviewer agent pair for OpenProject tasks."),
	)

	logger := newLogger(cli.LogLevel)

	task := strings.TrimSpace(strings.Join(cli.Task, " "))
	if task == "" {
		var err error
		task, err = readTask(os.Stdin)
		if err != nil {
			logger.Error("read task", "err", err)
			os.Exit(1)
		}
	}
	if task == "" {
		logger.Error("no task given; pass it as an argument or on stdin")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := llm.NewClient(cli.LLMBaseURL, cli.LLMAPIKey, logger)
	worker := &orchestrator.Agent{
		Name:         "worker",
		Model:        cli.WorkerModel,
		SystemPrompt: workerPrompt,
		Client:       client,
	}
	reviewer := &orchestrator.Agent{
		Name:         "reviewer",
		Model:        cli.ReviewerModel,
		SystemPrompt: reviewerPrompt,
		Client:       client,
	}

	conv := orchestrator.New(worker, reviewer,
		orchestrator.NewGatewayClient(cli.GatewayURL),
		cli.MaxRounds, cli.Sentinel, logger)

	logger.Info("starting conversation",
		"id", conv.ID,
		"gateway", cli.GatewayURL,
		"worker_model", cli.WorkerModel,
		"reviewer_model", cli.ReviewerModel,
		"max_rounds", cli.MaxRounds,
	)

	transcript, err := conv.Run(ctx, task)
	printTranscript(os.Stdout, transcript)
	if err != nil {
		logger.Error("conversation failed", "err", err)
		os.Exit(1)
	}
	logger.Info("conversation finished", "state", conv.State().String(), "entries", len(transcript))
}

func newLogger(level string) *slog.Logger {
	l := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// readTask reads the task description from r until EOF.
func readTask(r io.Reader) (string, error) {
	var b strings.Builder
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		b.WriteString(sc.Text())
		b.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}

// printTranscript writes a readable rendering of the conversation.
func printTranscript(w io.Writer, transcript []orchestrator.Entry) {
	for _, e := range transcript {
		msg := e.Message
		switch msg.Role {
		case "tool":
			fmt.Fprintf(w, "--- %s (tool result %s) ---\n%s\n\n", e.Agent, msg.ToolCallID, msg.Content)
		default:
			fmt.Fprintf(w, "--- %s (%s) ---\n%s\n", e.Agent, msg.Role, msg.Content)
			for _, tc := range msg.ToolCalls {
				fmt.Fprintf(w, "  -> %s(%s)\n", tc.Function.Name, tc.Function.Arguments)
			}
			fmt.Fprintln(w)
		}
	}
}
