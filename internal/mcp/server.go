package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mzhou/focusfield/internal/analyzer"
	"github.com/mzhou/focusfield/internal/display"
	"github.com/mzhou/focusfield/internal/storage"
)

// Server implements the MCP protocol for focusfield. It lets AI assistants
// compute the focus field for a cursor position in any file they can name.
type Server struct {
	db     *storage.DB
	input  io.Reader
	output io.Writer
}

// NewServer creates a new MCP server. db may be nil; analyses are then not
// recorded to history.
func NewServer(db *storage.DB) *Server {
	return &Server{
		db:     db,
		input:  os.Stdin,
		output: os.Stdout,
	}
}

// JSON-RPC types
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// MCP specific types
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Capabilities    Capabilities `json:"capabilities"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Capabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

type ToolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type ToolCallResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Run starts the MCP server
func (s *Server) Run() error {
	scanner := bufio.NewScanner(s.input)
	// Increase buffer size for large messages
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			s.sendError(nil, -32700, "Parse error")
			continue
		}

		s.handleRequest(&req)
	}

	return scanner.Err()
}

func (s *Server) handleRequest(req *Request) {
	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "initialized":
		// Notification, no response needed
	case "tools/list":
		s.handleToolsList(req)
	case "tools/call":
		s.handleToolsCall(req)
	default:
		s.sendError(req.ID, -32601, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

func (s *Server) handleInitialize(req *Request) {
	result := InitializeResult{
		ProtocolVersion: "2024-11-05",
		ServerInfo: ServerInfo{
			Name:    "focusfield",
			Version: "1.0.0",
		},
		Capabilities: Capabilities{
			Tools: &ToolsCapability{},
		},
	}
	s.sendResult(req.ID, result)
}

func (s *Server) handleToolsList(req *Request) {
	cursorProps := map[string]Property{
		"file": {
			Type:        "string",
			Description: "Path of the source file to analyze",
		},
		"line": {
			Type:        "number",
			Description: "1-based line number of the cursor",
		},
		"column": {
			Type:        "number",
			Description: "1-based column number of the cursor",
		},
	}

	tools := []Tool{
		{
			Name:        "focus",
			Description: "Compute the focus field for a cursor position: the entity under the cursor, every related location (definitions, usages, modifications, imports, exports), and the line range to focus on",
			InputSchema: InputSchema{
				Type:       "object",
				Properties: cursorProps,
				Required:   []string{"file", "line", "column"},
			},
		},
		{
			Name:        "focus_summary",
			Description: "Summarize the focus field for a cursor position: target name and kind, relation counts by kind, and the focus range size",
			InputSchema: InputSchema{
				Type:       "object",
				Properties: cursorProps,
				Required:   []string{"file", "line", "column"},
			},
		},
		{
			Name:        "relations",
			Description: "List every related location for the entity under the cursor, optionally filtered by relation kind",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"file":   cursorProps["file"],
					"line":   cursorProps["line"],
					"column": cursorProps["column"],
					"kind": {
						Type:        "string",
						Description: "Only return relations of this kind (definition, usage, modification, import, export)",
					},
				},
				Required: []string{"file", "line", "column"},
			},
		},
		{
			Name:        "history",
			Description: "List recently recorded focus analyses",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"file": {
						Type:        "string",
						Description: "Only show analyses whose file path contains this pattern",
					},
					"limit": {
						Type:        "number",
						Description: "Maximum number of analyses to return, default 20",
						Default:     20,
					},
				},
			},
		},
	}

	s.sendResult(req.ID, map[string]interface{}{"tools": tools})
}

func (s *Server) handleToolsCall(req *Request) {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, -32602, "Invalid params")
		return
	}

	var text string
	var isError bool

	switch params.Name {
	case "focus":
		text, isError = s.toolFocus(params.Arguments)
	case "focus_summary":
		text, isError = s.toolFocusSummary(params.Arguments)
	case "relations":
		text, isError = s.toolRelations(params.Arguments)
	case "history":
		text, isError = s.toolHistory(params.Arguments)
	default:
		s.sendError(req.ID, -32602, fmt.Sprintf("Unknown tool: %s", params.Name))
		return
	}

	s.sendResult(req.ID, ToolCallResult{
		Content: []ContentItem{{Type: "text", Text: text}},
		IsError: isError,
	})
}

// analyzeArgs runs the focus analysis for the standard (file, line, column)
// tool arguments
func (s *Server) analyzeArgs(args map[string]interface{}) (*analyzer.FocusContext, string) {
	file, _ := args["file"].(string)
	if file == "" {
		return nil, "missing required argument: file"
	}
	line := intArg(args, "line", 0)
	column := intArg(args, "column", 0)
	if line < 1 || column < 1 {
		return nil, "line and column must be 1-based positive numbers"
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Sprintf("failed to read file: %v", err)
	}

	ctx := analyzer.CreateFocusField(string(data), file, line, column)
	if ctx == nil {
		return nil, fmt.Sprintf("no entity found at %s:%d:%d", file, line, column)
	}

	if s.db != nil {
		// History recording is best effort; a failed insert never fails the tool
		s.db.RecordAnalysis(ctx, line, column)
	}

	return ctx, ""
}

func (s *Server) toolFocus(args map[string]interface{}) (string, bool) {
	ctx, errMsg := s.analyzeArgs(args)
	if errMsg != "" {
		return errMsg, true
	}
	return display.FormatText(ctx), false
}

func (s *Server) toolFocusSummary(args map[string]interface{}) (string, bool) {
	ctx, errMsg := s.analyzeArgs(args)
	if errMsg != "" {
		return errMsg, true
	}
	return display.FormatSummary(analyzer.Summarize(ctx)), false
}

func (s *Server) toolRelations(args map[string]interface{}) (string, bool) {
	ctx, errMsg := s.analyzeArgs(args)
	if errMsg != "" {
		return errMsg, true
	}

	kindFilter, _ := args["kind"].(string)

	var sb strings.Builder
	count := 0
	fmt.Fprintf(&sb, "Relations of %s (%s):\n", ctx.Target.Name, ctx.Target.Kind)
	for _, rel := range ctx.Relations {
		if kindFilter != "" && string(rel.Kind) != kindFilter {
			continue
		}
		fmt.Fprintf(&sb, "  %s  line %d, col %d-%d  [%s]\n", rel.Kind, rel.Line, rel.Column, rel.EndColumn, rel.Severity)
		count++
	}
	if count == 0 {
		sb.WriteString("  (none)\n")
	}

	return sb.String(), false
}

func (s *Server) toolHistory(args map[string]interface{}) (string, bool) {
	if s.db == nil {
		return "history is not available: no database configured", true
	}

	limit := intArg(args, "limit", 20)
	filePattern, _ := args["file"].(string)

	var analyses []*storage.Analysis
	var err error
	if filePattern != "" {
		analyses, err = s.db.FindAnalysesByFile(filePattern, limit)
	} else {
		analyses, err = s.db.GetRecentAnalyses(limit)
	}
	if err != nil {
		return fmt.Sprintf("failed to query history: %v", err), true
	}

	if len(analyses) == 0 {
		return "no recorded analyses", false
	}

	var sb strings.Builder
	for _, a := range analyses {
		fmt.Fprintf(&sb, "[%d] %s (%s)  %s:%d:%d  %d relations, lines %d-%d  %s\n",
			a.ID, a.TargetName, a.TargetKind, a.File, a.Line, a.Column,
			a.RelationCount, a.StartLine, a.EndLine, a.CreatedAt)
	}
	return sb.String(), false
}

// intArg reads a JSON number argument, falling back to a default
func intArg(args map[string]interface{}, key string, fallback int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return fallback
}

func (s *Server) sendResult(id interface{}, result interface{}) {
	s.send(Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

func (s *Server) sendError(id interface{}, code int, message string) {
	s.send(Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &Error{Code: code, Message: message},
	})
}

func (s *Server) send(resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	fmt.Fprintf(s.output, "%s\n", data)
}
