package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/ports"
	"github.com/aretw0/turing/pkg/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SimulateResult is the structured output of the simulate and run_machine tools.
type SimulateResult struct {
	Outcome    domain.Outcome `json:"outcome" jsonschema_description:"halted, or step_limit_exceeded when the cap stopped a still-running machine"`
	FinalState string         `json:"final_state" jsonschema_description:"State of the last snapshot"`
	Steps      int            `json:"steps" jsonschema_description:"Number of transitions applied"`
	StepLimit  int            `json:"step_limit" jsonschema_description:"Cap applied to this run"`
	Verdict    turing.Verdict `json:"verdict" jsonschema_description:"accepted, rejected or undecided, read from the accept/reject state names"`
	Trace      domain.Trace   `json:"trace" jsonschema_description:"Every configuration from the initial one to the last"`
}

// LineError describes one rejected rule line.
type LineError struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// ValidateResult is the structured output of validate_rules.
type ValidateResult struct {
	Valid  bool        `json:"valid"`
	Rules  int         `json:"rules" jsonschema_description:"Number of rules parsed (0 when invalid)"`
	States []string    `json:"states,omitempty" jsonschema_description:"States named by the rules"`
	Errors []LineError `json:"errors,omitempty"`
}

// Server exposes the engine as an MCP server.
type Server struct {
	engine    ports.Simulator
	machines  *registry.Registry
	maxSteps  int
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithRegistry sets the machines run_machine and the resources expose.
// Defaults to the builtin machines.
func WithRegistry(r *registry.Registry) Option {
	return func(s *Server) {
		s.machines = r
	}
}

// WithMaxSteps caps run_machine at n steps regardless of the machine's own
// step_limit. Zero leaves the machine's limit in charge.
func WithMaxSteps(n int) Option {
	return func(s *Server) {
		s.maxSteps = n
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.Simulator, opts ...Option) (*Server, error) {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("turing-mcp", strings.TrimSpace(turing.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.machines == nil {
		machines, err := registry.NewWithBuiltins()
		if err != nil {
			return nil, err
		}
		s.machines = machines
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	simulateTool := mcp.NewTool("simulate",
		mcp.WithDescription("Run a single-tape Turing machine and return every configuration it passed through. "+
			"Rules are lines of the form '<state> <read> -> <state> <write> <L|R>'; '_' is blank, '*' matches any symbol."),
		mcp.WithString("rules", mcp.Required(), mcp.Description("Rule table, one rule per line")),
		mcp.WithString("start_state", mcp.Required(), mcp.Description("State the machine starts in")),
		mcp.WithString("input", mcp.Description("Initial tape contents (empty means one blank cell)")),
		mcp.WithString("accept_state", mcp.Description("State name read as acceptance (default state_accept)")),
		mcp.WithString("reject_state", mcp.Description("State name read as rejection (default state_reject)")),
		mcp.WithOutputSchema[SimulateResult](),
	)
	s.mcpServer.AddTool(simulateTool, mcp.NewStructuredToolHandler(s.handleSimulate))

	validateTool := mcp.NewTool("validate_rules",
		mcp.WithDescription("Check a rule table and report every malformed or duplicate line."),
		mcp.WithString("rules", mcp.Required(), mcp.Description("Rule table, one rule per line")),
		mcp.WithOutputSchema[ValidateResult](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	runMachineTool := mcp.NewTool("run_machine",
		mcp.WithDescription("Run one of the registered machines ("+strings.Join(s.machines.Names(), ", ")+")."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Machine name")),
		mcp.WithString("input", mcp.Description("Initial tape contents; an empty string is the empty tape. Omit it for the machine's sample input")),
		mcp.WithOutputSchema[SimulateResult](),
	)
	s.mcpServer.AddTool(runMachineTool, mcp.NewStructuredToolHandler(s.handleRunMachine))
}

func (s *Server) handleSimulate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SimulateResult, error) {
	rules, _ := args["rules"].(string)
	start, _ := args["start_state"].(string)
	input, _ := args["input"].(string)
	accept, _ := args["accept_state"].(string)
	reject, _ := args["reject_state"].(string)

	return s.simulate(ctx, domain.Request{Rules: rules, StartState: start, Input: input}, accept, reject)
}

func (s *Server) handleRunMachine(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SimulateResult, error) {
	name, _ := args["name"].(string)

	def, err := s.machines.Get(name)
	if err != nil {
		return SimulateResult{}, err
	}
	req := def.SampleRequest()
	if input, ok := args["input"].(string); ok {
		req = def.Request(input)
	}

	eng, err := s.engine.Limited(def.EffectiveStepLimit(s.maxSteps, s.engine.StepLimit()))
	if err != nil {
		return SimulateResult{}, err
	}
	return s.run(ctx, eng, req, def.Accept, def.Reject)
}

func (s *Server) simulate(ctx context.Context, req domain.Request, accept, reject string) (SimulateResult, error) {
	return s.run(ctx, s.engine, req, accept, reject)
}

func (s *Server) run(ctx context.Context, eng ports.Simulator, req domain.Request, accept, reject string) (SimulateResult, error) {
	if accept == "" {
		accept = turing.DefaultAcceptState
	}
	if reject == "" {
		reject = turing.DefaultRejectState
	}

	run, err := eng.Run(ctx, req)
	if err != nil {
		slog.Debug("MCP simulate: run rejected", "error", err)
		return SimulateResult{}, fmt.Errorf("simulate failed: %w", err)
	}
	return SimulateResult{
		Outcome:    run.Outcome,
		FinalState: run.FinalState,
		Steps:      run.Steps,
		StepLimit:  run.StepLimit,
		Verdict:    turing.Judge(run, accept, reject),
		Trace:      run.Trace,
	}, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidateResult, error) {
	rules, _ := args["rules"].(string)

	table, err := s.engine.Parse(ctx, rules)
	if err == nil {
		return ValidateResult{Valid: true, Rules: table.Len(), States: table.States()}, nil
	}

	lines := domain.MalformedLines(err)
	if len(lines) == 0 {
		return ValidateResult{}, err
	}
	res := ValidateResult{Errors: make([]LineError, len(lines))}
	for i, l := range lines {
		res.Errors[i] = LineError{Line: l.Line, Text: l.Text, Reason: l.Reason}
	}
	return res, nil
}

func (s *Server) registerResources() {
	for _, name := range s.machines.Names() {
		uri := "turing://machines/" + name
		s.mcpServer.AddResource(mcp.NewResource(uri, "Machine "+name,
			mcp.WithMIMEType("text/plain"),
		), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			def, err := s.machines.Get(name)
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      uri,
					MIMEType: "text/plain",
					Text:     def.Rules,
				},
			}, nil
		})
	}
}
