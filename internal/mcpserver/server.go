// Package mcpserver exposes recording analysis as MCP tools over stdio.
package mcpserver

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/jfr/flame"
	"github.com/jerrinot/jfrlens/internal/report"
	"github.com/jerrinot/jfrlens/internal/session"
)

const defaultTop = 10

// Server answers tool calls from the session cache.
type Server struct {
	cache       *session.Cache
	defaultDims analysis.Dimension
	log         *zap.Logger
	mcp         *server.MCPServer
}

// New registers the tools. dims is what analyze_profile computes when the
// caller names no dimensions.
func New(cache *session.Cache, dims analysis.Dimension, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cache:       cache,
		defaultDims: dims,
		log:         log,
		mcp: server.NewMCPServer("jfrlens", version,
			server.WithToolCapabilities(false),
			server.WithLogging(),
		),
	}

	s.mcp.AddTool(mcp.NewTool("analyze_profile",
		mcp.WithDescription("Analyze a JFR recording or event dump and summarize each dimension per thread: CPU time, wall clock, allocations, I/O, locks."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to a .jfr, .jfr.gz, .jsonl or .ndjson file")),
		mcp.WithString("dimensions", mcp.Description("Comma-separated dimensions, e.g. cpu,wall,alloc, or all")),
		mcp.WithNumber("top", mcp.Description("Threads listed per dimension (default: 10)")),
	), s.handleAnalyze)

	s.mcp.AddTool(mcp.NewTool("top_leaves",
		mcp.WithDescription("List the frames with the most exclusive weight for the matching threads of one dimension. These are where the time or bytes are actually spent."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the recording")),
		mcp.WithString("dimension", mcp.Required(), mcp.Description("One dimension, e.g. cpu or file-read-size")),
		mcp.WithString("thread", mcp.Description("Thread name substring (default: all threads)")),
		mcp.WithNumber("tid", mcp.Description("Exact thread id")),
		mcp.WithNumber("n", mcp.Description("Leaves per thread, 0 for all (default: 10)")),
	), s.handleTopLeaves)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List the threads of one dimension ranked by total value."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the recording")),
		mcp.WithString("dimension", mcp.Required(), mcp.Description("One dimension, e.g. cpu")),
		mcp.WithString("thread", mcp.Description("Thread name substring")),
	), s.handleListTasks)
	return s
}

// ServeStdio serves until stdin closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp, server.WithErrorLogger(zap.NewStdLog(s.log)))
}

func (s *Server) handleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dims := s.defaultDims
	if names := req.GetString("dimensions", ""); names != "" {
		if dims, err = analysis.ParseDimensions([]string{names}); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	sess, err := s.cache.Get(ctx, path, dims)
	if err != nil {
		return s.failed("analyze_profile", path, err), nil
	}
	var buf bytes.Buffer
	report.New(&buf, false).Summary(sess.Result, req.GetInt("top", defaultTop))
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) handleTopLeaves(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, d, err := s.dimension(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dr, _ := sess.Result.Get(d)
	if dr.NotApplicable {
		return mcp.NewToolResultText(fmt.Sprintf("%s is not applicable to this recording", d)), nil
	}
	var tid *int64
	if v := req.GetInt("tid", -1); v >= 0 {
		id := int64(v)
		tid = &id
	}
	tasks := dr.Select(req.GetString("thread", ""), tid)
	if len(tasks) == 0 {
		return mcp.NewToolResultText("no matching threads"), nil
	}
	n := req.GetInt("n", defaultTop)
	var buf bytes.Buffer
	p := report.New(&buf, false)
	for i, t := range tasks {
		if i > 0 {
			buf.WriteString("\n")
		}
		p.Leaves(d, t, flame.Build(t.Stacks, t.Value).Leaves(n), true)
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) handleListTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, d, err := s.dimension(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dr, _ := sess.Result.Get(d)
	var buf bytes.Buffer
	report.New(&buf, false).Tasks(dr, dr.Filter(req.GetString("thread", "")), 0)
	return mcp.NewToolResultText(buf.String()), nil
}

// dimension loads the session for the single dimension a tool names.
func (s *Server) dimension(ctx context.Context, req mcp.CallToolRequest) (*session.Session, analysis.Dimension, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return nil, 0, err
	}
	name, err := req.RequireString("dimension")
	if err != nil {
		return nil, 0, err
	}
	d, err := analysis.ParseDimension(name)
	if err != nil {
		return nil, 0, err
	}
	sess, err := s.cache.Get(ctx, path, d)
	if err == nil {
		dr, _ := sess.Result.Get(d)
		err = dr.Err
	}
	if err != nil {
		s.log.Warn("tool call failed", zap.String("tool", req.Params.Name), zap.String("path", path), zap.Error(err))
		return nil, 0, err
	}
	return sess, d, nil
}

func (s *Server) failed(tool, path string, err error) *mcp.CallToolResult {
	s.log.Warn("tool call failed", zap.String("tool", tool), zap.String("path", path), zap.Error(err))
	return mcp.NewToolResultError(err.Error())
}
