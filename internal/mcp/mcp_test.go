package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/crumbs/internal/config"
	"github.com/hpungsan/crumbs/internal/cookie"
	"github.com/hpungsan/crumbs/internal/errors"
	"github.com/hpungsan/crumbs/internal/logger"
	"github.com/hpungsan/crumbs/internal/store/memory"
)

func ptrFloat(f float64) *float64 { return &f }

func rec(domain, name string) cookie.Record {
	return cookie.Record{
		Domain:         domain,
		Path:           "/",
		Name:           name,
		Value:          name + "-value",
		Secure:         true,
		HostOnly:       !strings.HasPrefix(domain, "."),
		ExpirationDate: ptrFloat(1893456000),
		StoreID:        "0",
	}
}

// testSetup creates a seeded memory store and config for testing.
func testSetup(t *testing.T) (*memory.Store, *config.Config) {
	t.Helper()

	st := memory.New(
		rec("a.com", "sid"),
		rec("a.com", "csrf"),
		rec("b.com", "tmp"),
		rec(".c.com", "ga"),
		rec(".c.com", "gid"),
		rec(".c.com", "pref"),
	)
	cfg := config.DefaultConfig()
	return st, cfg
}

func newTestHandlers(t *testing.T) (*Handlers, *memory.Store) {
	t.Helper()
	st, cfg := testSetup(t)
	return NewHandlers(st, cfg, logger.NewNop()), st
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestHandleInventory(t *testing.T) {
	h, _ := newTestHandlers(t)
	ctx := context.Background()

	t.Run("default sort", func(t *testing.T) {
		result, err := h.HandleInventory(ctx, makeRequest(map[string]any{}))
		if err != nil {
			t.Fatalf("HandleInventory() error = %v", err)
		}
		output := parseOutput(t, result)

		items := output["items"].([]any)
		if len(items) != 3 {
			t.Fatalf("items = %d, want 3", len(items))
		}
		first := items[0].(map[string]any)
		if first["domain"] != ".c.com" {
			t.Errorf("first domain = %v, want .c.com", first["domain"])
		}
		if _, ok := first["cookies"]; ok {
			t.Error("cookies should be omitted unless include_cookies is set")
		}
		if output["sort"] != "domain_asc" {
			t.Errorf("sort = %v, want domain_asc", output["sort"])
		}
		if output["total_cookies"] != float64(6) {
			t.Errorf("total_cookies = %v, want 6", output["total_cookies"])
		}
	})

	t.Run("count desc with cookies", func(t *testing.T) {
		result, _ := h.HandleInventory(ctx, makeRequest(map[string]any{
			"sort":            "count",
			"order":           "desc",
			"limit":           float64(1),
			"include_cookies": true,
		}))
		output := parseOutput(t, result)

		items := output["items"].([]any)
		if len(items) != 1 {
			t.Fatalf("items = %d, want 1", len(items))
		}
		first := items[0].(map[string]any)
		if first["domain"] != ".c.com" || first["count"] != float64(3) {
			t.Errorf("first = %v, want .c.com with 3", first)
		}
		if cookies, _ := first["cookies"].([]any); len(cookies) != 3 {
			t.Errorf("cookies = %v, want 3", first["cookies"])
		}
		pagination := output["pagination"].(map[string]any)
		if pagination["has_more"] != true {
			t.Errorf("has_more = %v, want true", pagination["has_more"])
		}
	})

	t.Run("domain_contains filter", func(t *testing.T) {
		result, _ := h.HandleInventory(ctx, makeRequest(map[string]any{"domain_contains": "ZZ"}))
		output := parseOutput(t, result)
		if items := output["items"].([]any); len(items) != 0 {
			t.Errorf("items = %v, want none", items)
		}
	})

	t.Run("invalid sort", func(t *testing.T) {
		result, _ := h.HandleInventory(ctx, makeRequest(map[string]any{"sort": "name"}))
		if !result.IsError {
			t.Fatal("expected error result")
		}
		assertErrorCode(t, result, "INVALID_REQUEST")
	})

	t.Run("wrong argument type", func(t *testing.T) {
		result, _ := h.HandleInventory(ctx, makeRequest(map[string]any{"limit": "ten"}))
		assertErrorCode(t, result, "INVALID_REQUEST")
	})
}

func TestHandleInventory_ConfigPageSize(t *testing.T) {
	st, cfg := testSetup(t)
	cfg.PageSize = 2
	h := NewHandlers(st, cfg, nil)

	result, _ := h.HandleInventory(context.Background(), makeRequest(map[string]any{}))
	output := parseOutput(t, result)
	if items := output["items"].([]any); len(items) != 2 {
		t.Errorf("items = %d, want page size 2", len(items))
	}
}

func TestHandleInventory_StoreFailure(t *testing.T) {
	h, st := newTestHandlers(t)
	st.ListErr = fmt.Errorf("database is locked")

	result, _ := h.HandleInventory(context.Background(), makeRequest(map[string]any{}))
	assertErrorCode(t, result, "INTERNAL")
	if msg := extractErrorMessage(result); strings.Contains(msg, "locked") {
		t.Errorf("internal error leaked cause: %s", msg)
	}
}

func TestHandleList(t *testing.T) {
	h, _ := newTestHandlers(t)
	ctx := context.Background()

	t.Run("exact domain", func(t *testing.T) {
		result, _ := h.HandleList(ctx, makeRequest(map[string]any{"domain": ".c.com"}))
		output := parseOutput(t, result)
		if items := output["items"].([]any); len(items) != 3 {
			t.Errorf("items = %d, want 3", len(items))
		}
	})

	t.Run("leading dot is significant", func(t *testing.T) {
		result, _ := h.HandleList(ctx, makeRequest(map[string]any{"domain": "c.com"}))
		output := parseOutput(t, result)
		if items := output["items"].([]any); len(items) != 0 {
			t.Errorf("items = %d, want 0", len(items))
		}
	})

	t.Run("missing domain", func(t *testing.T) {
		result, _ := h.HandleList(ctx, makeRequest(map[string]any{}))
		assertErrorCode(t, result, "INVALID_REQUEST")
	})
}

func TestHandleDeleteDomains(t *testing.T) {
	h, st := newTestHandlers(t)

	result, err := h.HandleDeleteDomains(context.Background(), makeRequest(map[string]any{
		"domains": []any{"a.com", "none.com", "a.com"},
	}))
	if err != nil {
		t.Fatalf("HandleDeleteDomains() error = %v", err)
	}
	output := parseOutput(t, result)

	if output["id"] == "" {
		t.Error("expected report id")
	}
	if output["deleted"] != float64(2) || output["failed"] != float64(0) {
		t.Errorf("deleted = %v failed = %v, want 2 and 0", output["deleted"], output["failed"])
	}
	outcomes := output["outcomes"].([]any)
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want duplicates collapsed to 2", len(outcomes))
	}
	second := outcomes[1].(map[string]any)
	if second["domain"] != "none.com" || second["message"] != "No cookies found" {
		t.Errorf("second outcome = %v", second)
	}
	if st.Len() != 4 {
		t.Errorf("store has %d cookies, want 4", st.Len())
	}
}

func TestHandleDeleteDomains_PartialFailure(t *testing.T) {
	h, st := newTestHandlers(t)
	st.RemoveErrFor = map[string]error{"tmp": fmt.Errorf("readonly")}

	result, _ := h.HandleDeleteDomains(context.Background(), makeRequest(map[string]any{
		"domains": []any{"b.com", ".c.com"},
	}))
	output := parseOutput(t, result)

	if output["failed"] != float64(1) || output["deleted"] != float64(3) {
		t.Errorf("failed = %v deleted = %v, want 1 and 3", output["failed"], output["deleted"])
	}
	first := output["outcomes"].([]any)[0].(map[string]any)
	if msg, _ := first["message"].(string); !strings.HasPrefix(msg, "Unexpected error:") {
		t.Errorf("b.com message = %q", msg)
	}
}

func TestHandleDeleteDomains_Empty(t *testing.T) {
	h, _ := newTestHandlers(t)

	for _, args := range []map[string]any{
		{},
		{"domains": []any{}},
		{"domains": []any{"  ", ""}},
	} {
		result, _ := h.HandleDeleteDomains(context.Background(), makeRequest(args))
		assertErrorCode(t, result, "INVALID_REQUEST")
	}
}

func TestHandleDeleteAll(t *testing.T) {
	h, st := newTestHandlers(t)
	ctx := context.Background()

	result, _ := h.HandleDeleteAll(ctx, makeRequest(map[string]any{}))
	assertErrorCode(t, result, "INVALID_REQUEST")
	if st.Len() != 6 {
		t.Fatalf("store has %d cookies after unconfirmed call, want 6", st.Len())
	}

	result, _ = h.HandleDeleteAll(ctx, makeRequest(map[string]any{"confirm": true}))
	output := parseOutput(t, result)
	if output["deleted"] != float64(6) {
		t.Errorf("deleted = %v, want 6", output["deleted"])
	}
	if outcomes := output["outcomes"].([]any); len(outcomes) != 3 {
		t.Errorf("outcomes = %d, want 3", len(outcomes))
	}
	if st.Len() != 0 {
		t.Errorf("store has %d cookies, want 0", st.Len())
	}
}

func TestHandlers_NilStore(t *testing.T) {
	h := NewHandlers(nil, nil, nil)
	ctx := context.Background()

	result, _ := h.HandleInventory(ctx, makeRequest(map[string]any{}))
	output := parseOutput(t, result)
	if items := output["items"].([]any); len(items) != 0 {
		t.Errorf("items = %v, want empty", items)
	}

	result, _ = h.HandleDeleteDomains(ctx, makeRequest(map[string]any{"domains": []any{"a.com"}}))
	output = parseOutput(t, result)
	if output["failed"] != float64(1) {
		t.Errorf("failed = %v, want 1", output["failed"])
	}
}

func TestServerRegistration(t *testing.T) {
	st, cfg := testSetup(t)

	s := NewServer(st, cfg, logger.NewNop(), "test")
	tools := s.ListTools()

	expectedTools := []string{
		"cookie_inventory",
		"cookie_list",
		"cookie_delete_domains",
		"cookie_delete_all",
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}
	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	st, cfg := testSetup(t)

	cfg.DisabledTools = []string{"cookie_delete_all", "cookie_delete_all", "not_a_tool"}
	s := NewServer(st, cfg, logger.NewNop(), "test")
	tools := s.ListTools()

	if len(tools) != 3 {
		t.Errorf("registered tool count = %d, want 3", len(tools))
	}
	if _, ok := tools["cookie_delete_all"]; ok {
		t.Error("disabled tool cookie_delete_all should not be registered")
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	st, cfg := testSetup(t)

	cfg.DisabledTools = AllToolNames()
	s := NewServer(st, cfg, logger.NewNop(), "test")
	if tools := s.ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{name: "all valid", input: []string{"cookie_list", "cookie_delete_all"}, wantLen: 0},
		{name: "one unknown", input: []string{"cookie_list", "purge"}, wantLen: 1},
		{name: "empty list", input: []string{}, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if unknown := ValidateDisabledTools(tt.input); len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	want := []string{"cookie_delete_all", "cookie_delete_domains", "cookie_inventory", "cookie_list"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("AllToolNames() = %v, want %v", names, want)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("open /home/me/cookies.sqlite: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(r.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj := payload["error"].(map[string]any)

	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_WrappedError(t *testing.T) {
	r := errorResult(fmt.Errorf("domains[1]: %w", errors.NewNotFound("x.com")))

	errObj := decodeError(t, r)
	if errObj["code"] != string(errors.ErrNotFound) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if _, ok := errObj["details"]; !ok {
		t.Error("expected non-INTERNAL errors to include details when present")
	}
}

func TestErrorResult_PlainError(t *testing.T) {
	errObj := decodeError(t, errorResult(fmt.Errorf("boom")))
	if errObj["code"] != string(errors.ErrInternal) || errObj["status"] != float64(500) {
		t.Errorf("error = %v, want INTERNAL 500", errObj)
	}
}

// Helper functions

func decodeError(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if !result.IsError {
		t.Fatal("expected IsError=true")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload["error"].(map[string]any)
}

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if !result.IsError {
		t.Errorf("expected error result with code %q", expectedCode)
		return
	}
	errorObj := decodeError(t, result)
	code, ok := errorObj["code"].(string)
	if !ok {
		t.Errorf("no code in error object")
		return
	}
	if code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}
	return text.Text
}
