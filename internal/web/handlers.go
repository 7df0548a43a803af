package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/crumbs/internal/config"
	"github.com/hpungsan/crumbs/internal/errors"
	"github.com/hpungsan/crumbs/internal/logger"
	"github.com/hpungsan/crumbs/internal/ops"
	"github.com/hpungsan/crumbs/internal/store"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	store    store.Store
	cfg      *config.Config
	log      logger.Logger
	renderer *Renderer
}

// HandleInventory renders the per-domain cookie table (GET /cookies).
func (h *Handlers) HandleInventory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pageSize := h.cfg.PageSize
	if pageSize <= 0 {
		pageSize = ops.DefaultInventoryLimit
	}
	page := max(parseIntParam(r, "page", 1), 1)

	input := ops.InventoryInput{
		DomainContains: q.Get("contains"),
		SortBy:         q.Get("sort"),
		Order:          q.Get("order"),
		Limit:          pageSize,
		Offset:         (page - 1) * pageSize,
		IncludeCookies: true,
	}

	result, err := ops.Inventory(r.Context(), h.store, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	sortBy, order, _ := strings.Cut(result.Sort, "_")
	h.renderer.renderPage(w, r, "inventory", InventoryPageData{
		PageData: PageData{
			Title:   "Cookies",
			Version: h.renderer.version,
			Nav:     navCookies,
		},
		Items:        result.Items,
		Pagination:   result.Pagination,
		TotalCookies: result.TotalCookies,
		SortBy:       sortBy,
		Order:        order,
		Contains:     input.DomainContains,
		Page:         page,
		Pages:        pageCount(result.Pagination.Total, pageSize),
	})
}

// HandleDomain shows one domain's cookies (GET /cookies/{domain}).
func (h *Handlers) HandleDomain(w http.ResponseWriter, r *http.Request) {
	domain := r.PathValue("domain")
	if domain == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("domain is required"))
		return
	}

	result, err := ops.ListDomain(r.Context(), h.store, ops.ListInput{
		Domain: domain,
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "domain", DomainPageData{
		PageData: PageData{
			Title:   result.Domain,
			Version: h.renderer.version,
			Nav:     navCookies,
		},
		Domain:     result.Domain,
		Items:      result.Items,
		Pagination: result.Pagination,
	})
}

// HandleDelete evicts the selected domains (POST /cookies/delete).
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	domains, err := ops.CleanDomains(r.PostForm["domain"])
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if len(domains) == 0 {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("select at least one domain"))
		return
	}

	report := ops.DeleteDomains(r.Context(), h.store, domains)
	h.respondEviction(w, r, report)
}

// HandleDeleteAll evicts every domain (POST /cookies/delete-all).
func (h *Handlers) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	report, err := ops.DeleteAll(r.Context(), h.store)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.respondEviction(w, r, report)
}

// respondEviction logs the report and answers in the format the client asked for.
func (h *Handlers) respondEviction(w http.ResponseWriter, r *http.Request, report *ops.EvictionReport) {
	h.log.Info("evicted domains", "report", report.ID, "domains", len(report.Outcomes),
		"deleted", report.Deleted, "failed", report.Failed)

	// HTMX request: return the rendered report and let the page reload the table
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Trigger", "cookies-changed")
		h.renderer.renderReport(w, report)
		return
	}

	// JSON request
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, report)
		return
	}

	// Default: redirect back to a fresh inventory
	http.Redirect(w, r, "/cookies", http.StatusFound)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func pageCount(total, size int) int {
	if total == 0 || size <= 0 {
		return 1
	}
	return (total + size - 1) / size
}
