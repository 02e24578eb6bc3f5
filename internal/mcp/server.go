// Package mcp exposes the task manager as Model Context Protocol tools over
// newline-delimited JSON-RPC on stdio.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/tasks"
)

const protocolVersion = "2024-11-05"

const instructions = `Use tags as epics for big features (e.g., "add-stripe").
Create tasks and subtasks within tags to complete the epic.
When asked to "continue work for [feature]", find the related tag and use pulse_next.
Tasks follow PENDING → INPROGRESS → DONE and typically should be completed in order.`

// Server implements the MCP server for pulse
type Server struct {
	manager *tasks.Manager
	version string
	logger  *slog.Logger
}

// NewServer creates a new pulse MCP server
func NewServer(m *tasks.Manager, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		manager: m,
		version: version,
		logger:  logger,
	}
}

// MCP Protocol Types
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	Instructions    string             `json:"instructions,omitempty"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ServerCapabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema interface{} `json:"inputSchema"`
}

type CallToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type CallToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Run serves requests read from r until EOF or ctx is cancelled. Nothing
// but protocol messages is ever written to w.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Read line (JSON-RPC message)
		line, err := reader.ReadBytes('\n')
		if len(strings.TrimSpace(string(line))) > 0 {
			var req MCPRequest
			if jerr := json.Unmarshal(line, &req); jerr != nil {
				s.logger.Debug("unparseable request", slog.String("error", jerr.Error()))
				if serr := s.sendResponse(w, errorResponse(nil, -32700, "Parse error")); serr != nil {
					return serr
				}
			} else if resp := s.handleRequest(ctx, &req); resp != nil {
				if serr := s.sendResponse(w, resp); serr != nil {
					return serr
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading request: %w", err)
		}
	}
}

func (s *Server) sendResponse(w io.Writer, resp *MCPResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

func errorResponse(id interface{}, code int, message string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &MCPError{Code: code, Message: message},
	}
}

func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "tools/list":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  ListToolsResult{Tools: toolList},
		}
	case "tools/call":
		return s.handleCallTool(ctx, req)
	case "notifications/initialized":
		return nil // Notification, no response
	default:
		if req.ID == nil {
			return nil // unknown notification
		}
		return errorResponse(req.ID, -32601, "Method not found")
	}
}

func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: InitializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo: ServerInfo{
				Name:    "pulse-mcp",
				Version: s.version,
			},
			Capabilities: ServerCapabilities{
				Tools: &ToolsCapability{},
			},
			Instructions: instructions,
		},
	}
}

func (s *Server) handleCallTool(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, -32602, "Invalid params")
	}
	if params.Arguments == nil {
		params.Arguments = map[string]interface{}{}
	}

	handler, ok := s.tools()[params.Name]
	if !ok {
		return errorResponse(req.ID, -32601, "Unknown tool")
	}

	text, err := handler(ctx, params.Arguments)
	if err != nil {
		s.logger.Debug("tool failed", slog.String("tool", params.Name), slog.String("error", err.Error()))
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: CallToolResult{
				Content: []ToolContent{{Type: "text", Text: fmt.Sprintf("Error: %v", err)}},
				IsError: true,
			},
		}
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: CallToolResult{
			Content: []ToolContent{{Type: "text", Text: text}},
		},
	}
}

// toolFunc runs one tool and returns its text result.
type toolFunc func(ctx context.Context, args map[string]interface{}) (string, error)

func (s *Server) tools() map[string]toolFunc {
	return map[string]toolFunc{
		"pulse_add":            s.handleAdd,
		"pulse_list":           s.handleList,
		"pulse_update":         s.handleUpdate,
		"pulse_status":         s.handleStatus,
		"pulse_next":           s.handleNext,
		"pulse_subtask_add":    s.handleSubtaskAdd,
		"pulse_subtask_status": s.handleSubtaskStatus,
		"pulse_show":           s.handleShow,
		"pulse_delete":         s.handleDelete,
		"pulse_tags":           s.handleTags,
		"pulse_get_directory":  s.handleDirectory,
	}
}

func (s *Server) handleAdd(ctx context.Context, args map[string]interface{}) (string, error) {
	title, _ := args["title"].(string)
	description, _ := args["description"].(string)
	tag, _ := args["tag"].(string)

	task, err := s.manager.CreateTask(ctx, title, description, tag)
	if err != nil {
		return "", err
	}
	return withJSON("Task created successfully:", task)
}

func (s *Server) handleList(ctx context.Context, args map[string]interface{}) (string, error) {
	tag, _ := args["tag"].(string)
	status, err := statusArg(args, false)
	if err != nil {
		return "", err
	}

	list, err := s.manager.ListTasks(ctx, tag, status)
	if err != nil {
		return "", err
	}
	return withJSON(fmt.Sprintf("Found %d task(s):", len(list)), list)
}

func (s *Server) handleUpdate(ctx context.Context, args map[string]interface{}) (string, error) {
	id, err := intArg(args, "taskId")
	if err != nil {
		return "", err
	}

	var u model.TaskUpdate
	if v, ok := args["title"].(string); ok {
		u.Title = &v
	}
	if v, ok := args["description"].(string); ok {
		u.Description = &v
	}
	if v, ok := args["tag"].(string); ok {
		u.Tag = &v
	}

	task, err := s.manager.UpdateTask(ctx, id, u)
	if isMissing(err) {
		return fmt.Sprintf("Task with ID %d not found", id), nil
	}
	if err != nil {
		return "", err
	}
	return withJSON("Task updated successfully:", task)
}

func (s *Server) handleStatus(ctx context.Context, args map[string]interface{}) (string, error) {
	id, err := intArg(args, "taskId")
	if err != nil {
		return "", err
	}
	status, err := statusArg(args, true)
	if err != nil {
		return "", err
	}
	tag, _ := args["tag"].(string)
	cascade, _ := args["completeSubtasks"].(bool)

	task, err := s.manager.UpdateTaskStatus(ctx, id, status, tag, model.StatusOptions{CompleteSubtasks: cascade})
	if isMissing(err) {
		return fmt.Sprintf("Task with ID %d not found", id), nil
	}
	if err != nil {
		return "", err
	}
	return withJSON("Task status updated successfully:", task)
}

func (s *Server) handleNext(ctx context.Context, args map[string]interface{}) (string, error) {
	tag, _ := args["tag"].(string)

	task, err := s.manager.GetNextTask(ctx, tag)
	if isMissing(err) {
		if tag != "" {
			return fmt.Sprintf("No pending or in-progress tasks found for tag %q", tag), nil
		}
		return "No pending or in-progress tasks found", nil
	}
	if err != nil {
		return "", err
	}
	return withJSON("Next task to work on:", task)
}

func (s *Server) handleSubtaskAdd(ctx context.Context, args map[string]interface{}) (string, error) {
	parentID, err := intArg(args, "parentTaskId")
	if err != nil {
		return "", err
	}
	title, _ := args["title"].(string)
	tag, _ := args["tag"].(string)
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("title is required")
	}

	st, err := s.manager.AddSubtask(ctx, parentID, title, tag)
	if isMissing(err) {
		return fmt.Sprintf("Task with ID %d not found", parentID), nil
	}
	if err != nil {
		return "", err
	}
	return withJSON("Subtask added successfully:", st)
}

func (s *Server) handleSubtaskStatus(ctx context.Context, args map[string]interface{}) (string, error) {
	parentID, err := intArg(args, "parentTaskId")
	if err != nil {
		return "", err
	}
	subtaskID, err := intArg(args, "subtaskId")
	if err != nil {
		return "", err
	}
	status, err := statusArg(args, true)
	if err != nil {
		return "", err
	}
	tag, _ := args["tag"].(string)

	st, err := s.manager.UpdateSubtaskStatus(ctx, parentID, subtaskID, status, tag)
	if isMissing(err) {
		return fmt.Sprintf("Task %d or subtask %d not found", parentID, subtaskID), nil
	}
	if err != nil {
		return "", err
	}
	return withJSON("Subtask status updated successfully:", st)
}

func (s *Server) handleShow(ctx context.Context, args map[string]interface{}) (string, error) {
	id, err := intArg(args, "taskId")
	if err != nil {
		return "", err
	}
	tag, _ := args["tag"].(string)

	task, err := s.manager.GetTask(ctx, id, tag)
	if isMissing(err) {
		return fmt.Sprintf("Task with ID %d not found", id), nil
	}
	if err != nil {
		return "", err
	}
	return withJSON("Task details:", task)
}

func (s *Server) handleDelete(ctx context.Context, args map[string]interface{}) (string, error) {
	id, err := intArg(args, "taskId")
	if err != nil {
		return "", err
	}
	tag, _ := args["tag"].(string)

	ok, err := s.manager.DeleteTask(ctx, id, tag)
	if err != nil && !isMissing(err) {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("Task with ID %d not found", id), nil
	}
	return fmt.Sprintf("Task %d deleted", id), nil
}

func (s *Server) handleTags(ctx context.Context, args map[string]interface{}) (string, error) {
	all, _ := args["all"].(bool)

	summaries, err := s.manager.TagSummaries(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if all {
		b.WriteString("All tags:\n")
		for _, d := range summaries {
			fmt.Fprintf(&b, "  %s (%d tasks)\n", d.Tag, d.TaskCount)
		}
		return strings.TrimSpace(b.String()), nil
	}

	b.WriteString("Tags with open tasks:\n")
	found := false
	for _, d := range summaries {
		if d.OpenCount == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %s (%d open)\n", d.Tag, d.OpenCount)
		found = true
	}
	if !found {
		b.WriteString("  No tags with open tasks found.\n")
	}
	return strings.TrimSpace(b.String()), nil
}

func (s *Server) handleDirectory(_ context.Context, _ map[string]interface{}) (string, error) {
	return s.manager.Dir(), nil
}

// isMissing reports a lookup miss. Rejected input also matches ErrNotFound
// but is reported as an error.
func isMissing(err error) bool {
	return errors.Is(err, tasks.ErrNotFound) && !errors.Is(err, tasks.ErrInvalid)
}

func withJSON(heading string, v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return heading + "\n" + string(data), nil
}

// intArg reads a required integer argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, name string) (int, error) {
	switch v := args[name].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		return int(n), nil
	case nil:
		return 0, fmt.Errorf("%s is required", name)
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}

func statusArg(args map[string]interface{}, required bool) (model.Status, error) {
	raw, _ := args["status"].(string)
	if raw == "" {
		if required {
			return "", fmt.Errorf("status is required")
		}
		return "", nil
	}
	st, ok := model.ParseStatus(raw)
	if !ok {
		return "", fmt.Errorf("invalid status %q: use PENDING, INPROGRESS or DONE", raw)
	}
	return st, nil
}
