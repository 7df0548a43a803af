package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/crumbs/internal/config"
	"github.com/hpungsan/crumbs/internal/errors"
	"github.com/hpungsan/crumbs/internal/logger"
	"github.com/hpungsan/crumbs/internal/ops"
	"github.com/hpungsan/crumbs/internal/store"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store store.Store
	cfg   *config.Config
	log   logger.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st store.Store, cfg *config.Config, log logger.Logger) *Handlers {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Handlers{store: st, cfg: cfg, log: log.With("component", "mcp")}
}

// InventoryRequest represents the arguments for cookie_inventory.
type InventoryRequest struct {
	DomainContains string `json:"domain_contains,omitempty"`
	Sort           string `json:"sort,omitempty"`
	Order          string `json:"order,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
	IncludeCookies bool   `json:"include_cookies,omitempty"`
}

// ListRequest represents the arguments for cookie_list.
type ListRequest struct {
	Domain string `json:"domain"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// DeleteDomainsRequest represents the arguments for cookie_delete_domains.
type DeleteDomainsRequest struct {
	Domains []string `json:"domains"`
}

// DeleteAllRequest represents the arguments for cookie_delete_all.
type DeleteAllRequest struct {
	Confirm bool `json:"confirm"`
}

// HandleInventory handles the cookie_inventory tool call.
func (h *Handlers) HandleInventory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[InventoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	limit := input.Limit
	if limit == 0 {
		limit = h.cfg.PageSize
	}
	result, err := ops.Inventory(ctx, h.store, ops.InventoryInput{
		DomainContains: input.DomainContains,
		SortBy:         input.Sort,
		Order:          input.Order,
		Limit:          limit,
		Offset:         input.Offset,
		IncludeCookies: input.IncludeCookies,
	})
	if err != nil {
		h.log.Err(err, "inventory failed")
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the cookie_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListDomain(ctx, h.store, ops.ListInput{
		Domain: input.Domain,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDeleteDomains handles the cookie_delete_domains tool call.
func (h *Handlers) HandleDeleteDomains(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteDomainsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if len(input.Domains) == 0 {
		return errorResult(errors.NewInvalidRequest("domains is required")), nil
	}
	domains, err := ops.CleanDomains(input.Domains)
	if err != nil {
		return errorResult(err), nil
	}

	report := ops.DeleteDomains(ctx, h.store, domains)
	h.log.Info("evicted domains", "report", report.ID, "domains", len(domains),
		"deleted", report.Deleted, "failed", report.Failed)

	return successResult(report)
}

// HandleDeleteAll handles the cookie_delete_all tool call.
func (h *Handlers) HandleDeleteAll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteAllRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if !input.Confirm {
		return errorResult(errors.NewInvalidRequest("confirm must be true to delete every cookie")), nil
	}

	report, err := ops.DeleteAll(ctx, h.store)
	if err != nil {
		h.log.Err(err, "delete all failed")
		return errorResult(err), nil
	}
	h.log.Info("evicted all domains", "report", report.ID, "domains", len(report.Outcomes),
		"deleted", report.Deleted, "failed", report.Failed)

	return successResult(report)
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var cErr *errors.CrumbsError
	if stderrors.As(err, &cErr) {
		errorObj := map[string]any{
			"code":   cErr.Code,
			"status": cErr.Status,
		}
		// Internal messages can carry file paths and SQL errors.
		if cErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		} else {
			errorObj["message"] = cErr.Message
			if cErr.Details != nil {
				errorObj["details"] = cErr.Details
			}
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
