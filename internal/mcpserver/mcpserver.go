// Package mcpserver exposes read-only ATS tools to MCP clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"whitecarrot/internal/ats"
	"whitecarrot/internal/careers"
	"whitecarrot/internal/domain"
	"whitecarrot/internal/errors"
	"whitecarrot/internal/matching"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerName is announced to MCP clients
const ServerName = "whitecarrot-ats"

type tools struct {
	svc    *ats.Service
	logger *errors.Logger
}

// New creates an MCP server with the search_jobs, score_match and
// get_application tools registered
func New(svc *ats.Service, version string, logger *errors.Logger) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version)
	t := &tools{svc: svc, logger: logger}
	t.register(s)
	return s
}

// Serve runs the server on stdin and stdout until the client disconnects
func Serve(svc *ats.Service, version string, logger *errors.Logger) error {
	return server.ServeStdio(New(svc, version, logger))
}

func (t *tools) register(s *server.MCPServer) {
	searchTool := mcp.NewTool("search_jobs",
		mcp.WithDescription("Search open jobs by title or skill, location, job type and company"),
	)
	searchTool.InputSchema = mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]any{
			"query":      map[string]any{"type": "string", "description": "Text matched against the title and the skills"},
			"location":   map[string]any{"type": "string", "description": "Substring of the job location"},
			"type":       map[string]any{"type": "string", "description": "Comma separated job types (Full-time, Part-time, Contract, Remote)"},
			"company_id": map[string]any{"type": "string", "description": "Restrict to one company"},
		},
	}
	s.AddTool(searchTool, t.searchJobs)

	scoreTool := mcp.NewTool("score_match",
		mcp.WithDescription("Score how well a candidate matches a job and show the screening decision. "+
			"Pass job_id and candidate_id, or job_skills and candidate_skills."),
	)
	scoreTool.InputSchema = mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]any{
			"job_id":           map[string]any{"type": "string", "description": "Stored job to score against"},
			"candidate_id":     map[string]any{"type": "string", "description": "Stored candidate to score"},
			"job_skills":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Required skills"},
			"candidate_skills": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Skills of the candidate"},
		},
	}
	s.AddTool(scoreTool, t.scoreMatch)

	appTool := mcp.NewTool("get_application",
		mcp.WithDescription("Fetch one application with its status, score and AI analysis"),
	)
	appTool.InputSchema = mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]any{
			"id": map[string]any{"type": "string", "description": "Application id"},
		},
		Required: []string{"id"},
	}
	s.AddTool(appTool, t.getApplication)
}

func arguments(request mcp.CallToolRequest) (map[string]any, bool) {
	if request.Params.Arguments == nil {
		return map[string]any{}, true
	}
	args, ok := request.Params.Arguments.(map[string]any)
	return args, ok
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

func stringsArg(args map[string]any, key string) []string {
	raw, _ := args[key].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// jsonResult renders v as indented JSON text
func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func (t *tools) failure(tool string, err error) *mcp.CallToolResult {
	if t.logger != nil && !errors.IsNotFound(err) {
		t.logger.LogError(err, "MCP tool failed", "tool", tool)
	}
	return mcp.NewToolResultError(err.Error())
}

func (t *tools) searchJobs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := arguments(request)
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	filter := careers.Filter{
		Query:     stringArg(args, "query"),
		Location:  stringArg(args, "location"),
		Types:     careers.ParseTypes(stringArg(args, "type")),
		CompanyID: stringArg(args, "company_id"),
	}
	jobs, err := t.svc.SearchJobs(ctx, filter)
	if err != nil {
		return t.failure("search_jobs", err), nil
	}
	return jsonResult(map[string]any{"count": len(jobs), "jobs": jobs})
}

// ScoreResult is the output of score_match
type ScoreResult struct {
	Match     matching.Match           `json:"match"`
	Status    domain.ApplicationStatus `json:"status"`
	Summary   string                   `json:"summary"`
	Reason    string                   `json:"reason,omitempty"`
	FastTrack bool                     `json:"fastTrack"`
}

func (t *tools) scoreMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := arguments(request)
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	var (
		job       domain.Job
		candidate domain.Candidate
		err       error
	)
	if id := stringArg(args, "job_id"); id != "" {
		if job, err = t.svc.Store().GetJob(ctx, id); err != nil {
			return t.failure("score_match", err), nil
		}
	} else if _, given := args["job_skills"]; given {
		job = domain.Job{Skills: stringsArg(args, "job_skills")}
	} else {
		return mcp.NewToolResultError("job_id or job_skills is required"), nil
	}

	if id := stringArg(args, "candidate_id"); id != "" {
		if candidate, err = t.svc.Store().GetCandidate(ctx, id); err != nil {
			return t.failure("score_match", err), nil
		}
	} else if _, given := args["candidate_skills"]; given {
		candidate = domain.Candidate{Skills: stringsArg(args, "candidate_skills")}
	} else {
		return mcp.NewToolResultError("candidate_id or candidate_skills is required"), nil
	}

	screening := matching.NewScreener(t.svc.Thresholds()).Screen(job, candidate)
	return jsonResult(ScoreResult{
		Match:     screening.Match,
		Status:    screening.Status,
		Summary:   screening.Summary,
		Reason:    screening.Reason,
		FastTrack: screening.FastTrack,
	})
}

func (t *tools) getApplication(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := arguments(request)
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	id := stringArg(args, "id")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	app, err := t.svc.Store().GetApplication(ctx, id)
	if err != nil {
		return t.failure("get_application", err), nil
	}
	return jsonResult(app)
}
