package mcp

import "github.com/mark3labs/mcp-go/mcp"

var inventoryToolDef = mcp.NewTool("cookie_inventory",
	mcp.WithDescription("List browser cookies grouped by domain. Each row has the domain, its cookie count, "+
		"and the secure/persistent flags of the domain's first cookie."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("domain_contains",
		mcp.Description("Only domains containing this text (case-insensitive)"),
	),
	mcp.WithString("sort",
		mcp.Description("Sort key (default: domain)"),
		mcp.Enum("domain", "count"),
	),
	mcp.WithString("order",
		mcp.Description("Sort order (default: asc)"),
		mcp.Enum("asc", "desc"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Rows per page (default: 25, max: 500)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Rows to skip (default: 0)"),
	),
	mcp.WithBoolean("include_cookies",
		mcp.Description("Include each domain's cookies in the rows (default: false)"),
	),
)

var listToolDef = mcp.NewTool("cookie_list",
	mcp.WithDescription("List the cookies of one domain. The domain is matched exactly; "+
		"\".example.com\" and \"example.com\" are different domains."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("domain",
		mcp.Required(),
		mcp.Description("Cookie domain as shown by cookie_inventory"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Cookies per page (default: 50, max: 500)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Cookies to skip (default: 0)"),
	),
)

var deleteDomainsToolDef = mcp.NewTool("cookie_delete_domains",
	mcp.WithDescription("Delete every cookie of the given domains. Domains are processed concurrently and "+
		"independently: one failing domain does not stop the others. Returns a per-domain report."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithArray("domains",
		mcp.Required(),
		mcp.Description("Domains to evict, exactly as shown by cookie_inventory"),
		mcp.WithStringItems(),
	),
)

var deleteAllToolDef = mcp.NewTool("cookie_delete_all",
	mcp.WithDescription("Delete every cookie of every domain in the inventory. Requires confirm=true."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithBoolean("confirm",
		mcp.Required(),
		mcp.Description("Must be true"),
	),
)
