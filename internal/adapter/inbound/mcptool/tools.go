// Package mcptool declares the MCP tool surface and binds each tool to the
// core use cases. Handlers only parse arguments, delegate, and shape
// results; all decision logic lives below the usecase boundary.
package mcptool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpGoServer "github.com/mark3labs/mcp-go/server"

	"github.com/appgauge/appgauge/internal/domain"
	"github.com/appgauge/appgauge/internal/usecase"
)

// Server binds the tool handlers to their collaborators.
type Server struct {
	gateway  *usecase.Gateway
	resolver *usecase.Resolver
	analyzer *usecase.Analyzer
	logger   *slog.Logger
}

// NewServer creates the tool binding layer.
func NewServer(gateway *usecase.Gateway, resolver *usecase.Resolver, analyzer *usecase.Analyzer, logger *slog.Logger) *Server {
	return &Server{
		gateway:  gateway,
		resolver: resolver,
		analyzer: analyzer,
		logger:   logger.With("component", "mcptool"),
	}
}

// Register declares every tool on the MCP server.
func (s *Server) Register(srv *mcpGoServer.MCPServer) {
	srv.AddTool(mcp.NewTool("list_applications",
		mcp.WithDescription("List all SaaS applications in the managed inventory."),
	), s.handleListApplications)

	srv.AddTool(mcp.NewTool("get_application",
		mcp.WithDescription("Get one application by ID or by name."),
		mcp.WithString("application", mcp.Required(), mcp.Description("Application ID or name")),
	), s.handleGetApplication)

	srv.AddTool(mcp.NewTool("get_application_usage",
		mcp.WithDescription("Get usage metrics (active users, adoption) for an application."),
		mcp.WithString("application", mcp.Required(), mcp.Description("Application ID or name")),
		mcp.WithString("period", mcp.Description("Reporting period, e.g. last30days (default)")),
	), s.handleGetApplicationUsage)

	srv.AddTool(mcp.NewTool("list_contracts",
		mcp.WithDescription("List all contracts across the organization."),
	), s.handleListContracts)

	srv.AddTool(mcp.NewTool("get_application_contracts",
		mcp.WithDescription("List the contracts attached to one application."),
		mcp.WithString("application", mcp.Required(), mcp.Description("Application ID or name")),
	), s.handleGetApplicationContracts)

	srv.AddTool(mcp.NewTool("get_application_licenses",
		mcp.WithDescription("List the license seat assignments of one application."),
		mcp.WithString("application", mcp.Required(), mcp.Description("Application ID or name")),
	), s.handleGetApplicationLicenses)

	srv.AddTool(mcp.NewTool("list_users",
		mcp.WithDescription("List the organization's users."),
	), s.handleListUsers)

	srv.AddTool(mcp.NewTool("list_shadow_it",
		mcp.WithDescription("List applications discovered in use without procurement visibility."),
	), s.handleListShadowIT)

	srv.AddTool(mcp.NewTool("get_spend_analytics",
		mcp.WithDescription("Get aggregated SaaS spend analytics for a period."),
		mcp.WithString("period", mcp.Description("Reporting period, e.g. last12months (default)")),
	), s.handleGetSpendAnalytics)

	srv.AddTool(mcp.NewTool("get_license_recommendations",
		mcp.WithDescription("Get upstream license right-sizing recommendations."),
	), s.handleGetLicenseRecommendations)

	srv.AddTool(mcp.NewTool("get_renewal_alerts",
		mcp.WithDescription("List contracts approaching renewal."),
		mcp.WithNumber("days_ahead", mcp.Description("Look-ahead window in days (default 90)")),
	), s.handleGetRenewalAlerts)

	srv.AddTool(mcp.NewTool("find_underutilized_applications",
		mcp.WithDescription("Rank applications whose active-user percentage is below a threshold, with annualized cost and potential savings."),
		mcp.WithNumber("threshold", mcp.Description("Active-user percentage cutoff, 0-100 (default 50)")),
		mcp.WithString("application", mcp.Description("Optional application ID or name to analyze alone")),
	), s.handleFindUnderutilized)

	srv.AddTool(mcp.NewTool("clear_cache",
		mcp.WithDescription("Drop every cached upstream response. Operator action."),
	), s.handleClearCache)

	s.logger.Info("Registered MCP tools")
}

// toolError shapes a taxonomy error for the host: stable machine code
// first, human-readable message after.
func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", domain.ErrorCode(err), err))
}

// jsonResult marshals v into a text content result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func stringArg(req mcp.CallToolRequest, key string) string {
	v, _ := req.GetArguments()[key].(string)
	return v
}

func numberArg(req mcp.CallToolRequest, key string, fallback float64) float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return fallback
	}
	return v
}

// resolveArg runs the name-or-ID input of a tool through the resolver.
func (s *Server) resolveArg(ctx context.Context, req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	input := stringArg(req, "application")
	if input == "" {
		return "", toolError(&domain.InvalidInputError{Param: "application", Reason: "must not be empty"})
	}
	id, err := s.resolver.Resolve(ctx, input)
	if err != nil {
		return "", toolError(err)
	}
	return id, nil
}

func (s *Server) handleListApplications(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	apps, err := s.gateway.ListApplications(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"applications": apps})
}

func (s *Server) handleGetApplication(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := s.resolveArg(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	app, err := s.gateway.GetApplication(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"application": app})
}

func (s *Server) handleGetApplicationUsage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := s.resolveArg(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	usage, err := s.gateway.GetApplicationUsage(ctx, id, stringArg(req, "period"))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"usage": usage})
}

func (s *Server) handleListContracts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contracts, err := s.gateway.ListContracts(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"contracts": contracts})
}

func (s *Server) handleGetApplicationContracts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := s.resolveArg(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	contracts, err := s.gateway.ListApplicationContracts(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"contracts": contracts})
}

func (s *Server) handleGetApplicationLicenses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := s.resolveArg(ctx, req)
	if errRes != nil {
		return errRes, nil
	}
	licenses, err := s.gateway.ListApplicationLicenses(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"licenses": licenses})
}

func (s *Server) handleListUsers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	users, err := s.gateway.ListUsers(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"users": users})
}

func (s *Server) handleListShadowIT(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	apps, err := s.gateway.ListShadowIT(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"shadowIT": apps})
}

func (s *Server) handleGetSpendAnalytics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	analytics, err := s.gateway.GetSpendAnalytics(ctx, stringArg(req, "period"))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"analytics": analytics})
}

func (s *Server) handleGetLicenseRecommendations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs, err := s.gateway.ListLicenseRecommendations(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"recommendations": recs})
}

func (s *Server) handleGetRenewalAlerts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := int(numberArg(req, "days_ahead", usecase.DefaultRenewalDaysAhead))
	alerts, err := s.gateway.ListRenewalAlerts(ctx, days)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"alerts": alerts})
}

func (s *Server) handleFindUnderutilized(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threshold := numberArg(req, "threshold", 50)

	appID := ""
	if input := stringArg(req, "application"); input != "" {
		id, err := s.resolver.Resolve(ctx, input)
		if err != nil {
			return toolError(err), nil
		}
		appID = id
	}

	results, err := s.analyzer.FindUnderutilized(ctx, threshold, appID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"underutilized": results})
}

func (s *Server) handleClearCache(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n := s.gateway.ClearCache()
	return jsonResult(map[string]any{"cleared": true, "evicted": n})
}
