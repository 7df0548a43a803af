package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/crumbs/internal/cookie"
	"github.com/hpungsan/crumbs/internal/errors"
	"github.com/hpungsan/crumbs/internal/logger"
	"github.com/hpungsan/crumbs/internal/ops"
)

const navCookies = "cookies-manager"

// expiryLayout matches the long en-US date shown in the cookie table.
const expiryLayout = "Monday, January 2, 2006"

// NavTab is one entry of the bottom navigation bar.
type NavTab struct {
	Name  string
	Label string
	Href  string // empty for tabs this server does not serve
}

var navTabs = []NavTab{
	{Name: "home", Label: "Home"},
	{Name: "mint", Label: "Mint"},
	{Name: "app", Label: "App"},
	{Name: navCookies, Label: "Cookies", Href: "/cookies"},
	{Name: "settings", Label: "Settings"},
}

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav tab name
}

// Tabs returns the bottom navigation bar entries.
func (p PageData) Tabs() []NavTab { return navTabs }

// InventoryPageData is the template data for the cookie inventory page.
type InventoryPageData struct {
	PageData
	Items        []cookie.DomainSummary
	Pagination   ops.Pagination
	TotalCookies int
	SortBy       string
	Order        string
	Contains     string
	Page         int
	Pages        int
}

// SortURL returns the link for a column header. Clicking the active column
// flips its order; any other column starts ascending.
func (d InventoryPageData) SortURL(column string) string {
	order := ops.OrderAsc
	if column == d.SortBy && d.Order == ops.OrderAsc {
		order = ops.OrderDesc
	}
	return d.query(column, order, 1)
}

// PageURL returns the link to page n with the current sort and filter.
func (d InventoryPageData) PageURL(n int) string {
	return d.query(d.SortBy, d.Order, n)
}

// SortMark returns the arrow shown next to the active column.
func (d InventoryPageData) SortMark(column string) string {
	if column != d.SortBy {
		return ""
	}
	if d.Order == ops.OrderDesc {
		return "▼"
	}
	return "▲"
}

func (d InventoryPageData) query(sortBy, order string, page int) string {
	v := url.Values{}
	v.Set("sort", sortBy)
	v.Set("order", order)
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	if d.Contains != "" {
		v.Set("contains", d.Contains)
	}
	return "/cookies?" + v.Encode()
}

// DomainPageData is the template data for the single-domain page.
type DomainPageData struct {
	PageData
	Domain     string
	Items      []cookie.Record
	Pagination ops.Pagination
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	markdown  goldmark.Markdown
	log       logger.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, log logger.Logger) *Renderer {
	if log == nil {
		log = logger.NewNop()
	}
	funcMap := template.FuncMap{
		"add":          func(a, b int) int { return a + b },
		"sub":          func(a, b int) int { return a - b },
		"formatExpiry": formatExpiry,
		"domainURL":    domainURL,
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"inventory": "inventory.html",
		"domain":    "domain.html",
		"error":     "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.Table)),
		log:       log,
	}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, req *http.Request, name string, data any) {
	r.renderPageStatus(w, req, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
// For HTMX requests, only the "content" block is rendered to avoid duplicating the layout.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.log.Error("template not found", "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	block := "layout"
	if req != nil && req.Header.Get("HX-Request") == "true" {
		block = "content"
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		r.log.Err(err, "template execution failed", "template", name, "block", block)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderReport writes an eviction report as an HTML fragment.
func (r *Renderer) renderReport(w http.ResponseWriter, report *ops.EvictionReport) {
	class := "eviction-report"
	if report.Failed > 0 {
		class += " has-failures"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `<div class="%s">%s</div>`, class, r.renderMarkdown(ops.FormatReportMarkdown(report)))
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	var cErr *errors.CrumbsError
	if !stderrors.As(err, &cErr) {
		cErr = errors.NewInternal(err)
	}

	status := cErr.Status
	message := cErr.Message
	if cErr.Code == errors.ErrInternal {
		r.log.Err(err, "request failed", "path", req.URL.Path)
		message = "an internal error occurred"
	}

	// HTMX request: return HTML fragment
	if req.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprintf(w, `<div class="error-message">%s</div>`, template.HTMLEscapeString(message))
		return
	}

	// JSON request
	if wantsJSON(req) {
		renderJSON(w, status, map[string]any{
			"error": map[string]any{
				"code":    string(cErr.Code),
				"message": message,
				"status":  status,
			},
		})
		return
	}

	// Full error page
	r.renderPageStatus(w, req, status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", status),
			Version: r.version,
			Nav:     navCookies,
		},
		StatusCode: status,
		Message:    message,
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts markdown text to HTML using goldmark.
func (r *Renderer) renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatExpiry formats a cookie's expiration date, or "" for session cookies.
func formatExpiry(rec cookie.Record) string {
	if rec.ExpirationDate == nil {
		return ""
	}
	return rec.Expires().UTC().Format(expiryLayout)
}

// domainURL returns the detail page path for a cookie domain.
func domainURL(domain string) string {
	return "/cookies/" + url.PathEscape(strings.TrimSpace(domain))
}
