package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/claude-session-go/internal/eventbus"
	"github.com/wagiedev/claude-session-go/internal/session"
)

// ServerName is the implementation name announced to MCP clients.
const ServerName = "claude-sessiond"

// Tool names.
const (
	ToolCreate = "session_create"
	ToolResume = "session_resume"
	ToolCancel = "session_cancel"
	ToolEvents = "session_events"
	ToolList   = "session_list"
)

// Controller is the session lifecycle the server drives.
type Controller interface {
	Create(ctx context.Context, req session.CreateRequest) (string, error)
	Resume(ctx context.Context, req session.ResumeRequest) error
	Cancel(ctx context.Context, key string) error
	Sessions() []session.Info
}

// EventSource pages through the events recorded for a session key.
type EventSource interface {
	Since(key string, cursor int) eventbus.Page
}

// CreateInput is the input of session_create.
type CreateInput struct {
	Message     string `json:"message" jsonschema:"the first user message"`
	ProjectPath string `json:"projectPath" jsonschema:"absolute path of the project directory"`
	Model       string `json:"model,omitempty" jsonschema:"model alias or full id; defaults to the configured model"`
}

// ResumeInput is the input of session_resume.
type ResumeInput struct {
	SessionID   string `json:"sessionId" jsonschema:"id of the session to continue"`
	Message     string `json:"message" jsonschema:"the next user message"`
	ProjectPath string `json:"projectPath" jsonschema:"absolute path of the project directory"`
}

// CancelInput is the input of session_cancel.
type CancelInput struct {
	SessionKey string `json:"sessionKey" jsonschema:"temporary or real key of a running session"`
}

// EventsInput is the input of session_events.
type EventsInput struct {
	SessionKey string `json:"sessionKey" jsonschema:"temporary or real key of a session"`
	Since      int    `json:"since,omitempty" jsonschema:"cursor returned by the previous call; 0 reads from the start"`
}

// ListInput is the input of session_list.
type ListInput struct{}

type keyOutput struct {
	SessionKey string `json:"sessionKey"`
}

type eventsOutput struct {
	eventbus.Page
	// CurrentKey is the key new events are published under. It differs from
	// the requested key once a temporary key has been reconciled.
	CurrentKey string `json:"currentKey"`
	State      string `json:"state"`
}

type listOutput struct {
	Sessions []session.Info `json:"sessions"`
}

// Server serves session control tools over MCP.
type Server struct {
	log    *slog.Logger
	ctrl   Controller
	events EventSource
	server *mcp.Server
}

// NewServer creates a server backed by ctrl and events.
func NewServer(log *slog.Logger, ctrl Controller, events EventSource, version string) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		log:    log.With("component", "mcp_server"),
		ctrl:   ctrl,
		events: events,
		server: mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolCreate,
		Description: "Start a new Claude session in a project directory. Returns a temporary sessionKey; poll session_events with it.",
	}, s.create)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolResume,
		Description: "Continue an existing Claude session with a new message.",
	}, s.resume)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolCancel,
		Description: "Kill the CLI process of a running session.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: new(true)},
	}, s.cancel)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolEvents,
		Description: "Read events of a session after a cursor. Follow currentKey once the temporary key is reconciled.",
		InputSchema: eventsSchema(),
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, s.readEvents)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolList,
		Description: "List tracked sessions and their lifecycle state.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, s.list)

	return s
}

// Run serves until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	s.log.Info("Serving session tools", "server", ServerName)

	return s.server.Run(ctx, t)
}

func (s *Server) create(ctx context.Context, _ *mcp.CallToolRequest, in CreateInput) (*mcp.CallToolResult, any, error) {
	key, err := s.ctrl.Create(ctx, session.CreateRequest{
		Message:     in.Message,
		ProjectPath: in.ProjectPath,
		Model:       in.Model,
	})
	if err != nil {
		return s.toolError(ToolCreate, err)
	}

	return jsonResult(keyOutput{SessionKey: key})
}

func (s *Server) resume(ctx context.Context, _ *mcp.CallToolRequest, in ResumeInput) (*mcp.CallToolResult, any, error) {
	err := s.ctrl.Resume(ctx, session.ResumeRequest{
		SessionID:   in.SessionID,
		Message:     in.Message,
		ProjectPath: in.ProjectPath,
	})
	if err != nil {
		return s.toolError(ToolResume, err)
	}

	return jsonResult(keyOutput{SessionKey: in.SessionID})
}

func (s *Server) cancel(ctx context.Context, _ *mcp.CallToolRequest, in CancelInput) (*mcp.CallToolResult, any, error) {
	if err := s.ctrl.Cancel(ctx, in.SessionKey); err != nil {
		return s.toolError(ToolCancel, err)
	}

	return jsonResult(keyOutput{SessionKey: in.SessionKey})
}

func (s *Server) readEvents(_ context.Context, _ *mcp.CallToolRequest, in EventsInput) (*mcp.CallToolResult, any, error) {
	out := eventsOutput{
		Page:       s.events.Since(in.SessionKey, in.Since),
		CurrentKey: in.SessionKey,
		State:      session.StateUnknown.String(),
	}

	// Newest run wins when a key was resumed more than once.
	sessions := s.ctrl.Sessions()
	for i := len(sessions) - 1; i >= 0; i-- {
		if sessions[i].Matches(in.SessionKey) {
			out.CurrentKey = sessions[i].Key
			out.State = sessions[i].State.String()

			break
		}
	}

	return jsonResult(out)
}

func (s *Server) list(_ context.Context, _ *mcp.CallToolRequest, _ ListInput) (*mcp.CallToolResult, any, error) {
	sessions := s.ctrl.Sessions()
	if sessions == nil {
		sessions = []session.Info{}
	}

	return jsonResult(listOutput{Sessions: sessions})
}

func (s *Server) toolError(tool string, err error) (*mcp.CallToolResult, any, error) {
	s.log.Warn("Tool call failed", "tool", tool, "error", err)

	return ErrorResult(err.Error()), nil, nil
}

// eventsSchema is the inferred input schema of session_events with the
// cursor constrained to be non-negative.
func eventsSchema() *jsonschema.Schema {
	schema, err := jsonschema.For[EventsInput](nil)
	if err != nil {
		panic("mcp: infer session_events schema: " + err.Error())
	}

	if since, ok := schema.Properties["since"]; ok {
		since.Minimum = new(0.0)
	}

	return schema
}

// TextResult creates a CallToolResult with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// ErrorResult creates a CallToolResult indicating an error.
func ErrorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
		IsError: true,
	}
}

// jsonResult renders v as indented JSON text content.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ErrorResult("encode result: " + err.Error()), nil, nil
	}

	return TextResult(string(data)), nil, nil
}
