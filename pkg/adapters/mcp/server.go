// Package mcp exposes conversations as Model Context Protocol tools, so an
// agent can hold a video game chat on behalf of a user.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/arcade/internal/logging"
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/ports"
	"github.com/aretw0/arcade/pkg/runner"
	"github.com/aretw0/arcade/pkg/session"
)

const graphURI = "arcade://graph"

// TurnResponse is the structured result of the conversation tools.
type TurnResponse struct {
	SessionID     string         `json:"session_id" jsonschema_description:"The session to pass to later calls"`
	State         domain.StateID `json:"state" jsonschema_description:"The state the conversation rests on"`
	Output        []string       `json:"output" jsonschema_description:"What the assistant says, in order"`
	AwaitingInput bool           `json:"awaiting_input" jsonschema_description:"True when the user should answer"`
	Ended         bool           `json:"ended" jsonschema_description:"True once the conversation is over"`
	NoMatch       bool           `json:"no_match,omitempty" jsonschema_description:"True when the utterance was not understood"`
	Vars          domain.Vars    `json:"vars,omitempty" jsonschema_description:"Variables bound so far"`
}

// StartArgs are the arguments of start_session.
type StartArgs struct {
	SessionID string `json:"session_id,omitempty"`
}

// SayArgs are the arguments of say.
type SayArgs struct {
	SessionID string `json:"session_id"`
	Utterance string `json:"utterance"`
}

// SessionArgs address an existing session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// Server wraps a conversation engine and exposes it as an MCP server.
type Server struct {
	engine    ports.Conversation
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP server over engine. Sessions live in the manager's store.
func NewServer(engine ports.Conversation, sessions *session.Manager, version string, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		sessions:  sessions,
		mcpServer: server.NewMCPServer("arcade-mcp", version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a video game chat and return the assistant's greeting."),
		mcp.WithString("session_id", mcp.Description("Session ID to use (optional, generated when empty)")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("say",
		mcp.WithDescription("Send the user's utterance and return the assistant's reply."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by start_session")),
		mcp.WithString("utterance", mcp.Required(), mcp.Description("What the user said")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleSay))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Read a session: current state, variables and recommended titles."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), mcp.NewStructuredToolHandler(s.handleGetSession))

	s.mcpServer.AddTool(mcp.NewTool("end_session",
		mcp.WithDescription("Forget a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), mcp.NewStructuredToolHandler(s.handleEnd))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the full conversation graph for introspection."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.Marshal(s.engine.Inspect())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args StartArgs) (TurnResponse, error) {
	started, err := s.sessions.Create(ctx, s.engine, args.SessionID)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("start failed: %w", err)
	}
	sess, turn, err := s.sessions.Step(ctx, s.engine, started.ID, "")
	if err != nil && !errors.Is(err, domain.ErrSessionEnded) {
		return TurnResponse{}, fmt.Errorf("opening turn failed: %w", err)
	}
	return response(sess, turn, false), nil
}

func (s *Server) handleSay(ctx context.Context, _ mcp.CallToolRequest, args SayArgs) (TurnResponse, error) {
	clean, err := runner.SanitizeInput(args.Utterance)
	if err != nil {
		s.logger.Warn("MCP say: Input rejected", "err", err, "size", len(args.Utterance))
		return TurnResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	_, sess, turn, err := s.sessions.Advance(ctx, s.engine, args.SessionID, clean)
	noMatch := errors.Is(err, domain.ErrNoMatch)
	if err != nil && !noMatch {
		return TurnResponse{}, fmt.Errorf("say failed: %w", err)
	}
	return response(sess, turn, noMatch), nil
}

func (s *Server) handleGetSession(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (*domain.Session, error) {
	sess, err := s.sessions.Load(ctx, args.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load failed: %w", err)
	}
	return sess, nil
}

func (s *Server) handleEnd(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (map[string]string, error) {
	if err := s.sessions.Delete(ctx, args.SessionID); err != nil {
		return nil, fmt.Errorf("delete failed: %w", err)
	}
	return map[string]string{"session_id": args.SessionID, "status": "deleted"}, nil
}

func response(s *domain.Session, turn domain.Turn, noMatch bool) TurnResponse {
	return TurnResponse{
		SessionID:     s.ID,
		State:         turn.State,
		Output:        turn.Output,
		AwaitingInput: turn.AwaitingInput,
		Ended:         turn.Ended,
		NoMatch:       noMatch,
		Vars:          s.Vars,
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Conversation Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.engine.Inspect())
		if err != nil {
			return nil, fmt.Errorf("failed to inspect graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      graphURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
