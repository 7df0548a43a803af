package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/crumbs/internal/config"
	"github.com/hpungsan/crumbs/internal/errors"
	"github.com/hpungsan/crumbs/internal/logger"
	"github.com/hpungsan/crumbs/internal/mcp"
	"github.com/hpungsan/crumbs/internal/ops"
	"github.com/hpungsan/crumbs/internal/store"
	"github.com/hpungsan/crumbs/internal/web"
)

// env carries the configuration shared by every command. The store is opened
// on first use, so help output and flag errors never touch the browser.
type env struct {
	cfg  *config.Config
	log  logger.Logger
	open storeOpener
	out  io.Writer

	st store.Store
}

func newEnv(cfg *config.Config, log logger.Logger) *env {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &env{cfg: cfg, log: log, open: openStore, out: os.Stdout}
}

// store returns the host store, opening it on first call.
func (e *env) store(ctx context.Context) (store.Store, error) {
	if e.st != nil {
		return e.st, nil
	}
	st, err := e.open(ctx, e.cfg, e.log)
	if err != nil {
		return nil, err
	}
	e.st = st
	return st, nil
}

// close releases the store, if one was opened.
func (e *env) close() {
	if e.st == nil {
		return
	}
	if err := store.Close(e.st); err != nil {
		e.log.Err(err, "close store")
	}
	e.st = nil
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:    "crumbs",
		Usage:   "Inspect and evict browser cookies by domain",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "store", Aliases: []string{"s"}, EnvVars: []string{"CRUMBS_STORE"},
				Usage: "Cookie store: " + strings.Join(config.StoreKinds, "|")},
			&cli.StringFlag{Name: "profile", Aliases: []string{"p"}, EnvVars: []string{"CRUMBS_PROFILE"},
				Usage: "Browser profile name or cookie database path"},
			&cli.StringFlag{Name: "browser", Aliases: []string{"b"}, EnvVars: []string{"CRUMBS_BROWSER"},
				Usage: "Chromium-family browser: " + strings.Join(config.Browsers, "|")},
			&cli.StringFlag{Name: "devtools-url", EnvVars: []string{"CRUMBS_DEVTOOLS_URL"},
				Usage: "Remote debugging endpoint for the devtools store"},
			&cli.StringFlag{Name: "fixture", EnvVars: []string{"CRUMBS_FIXTURE"},
				Usage: "JSON fixture seeding the memory store"},
			&cli.StringFlag{Name: "log-level", EnvVars: []string{"CRUMBS_LOG_LEVEL"},
				Usage: "Log level: debug|info|warn|error|off"},
		},
		Before: func(c *cli.Context) error {
			return e.applyFlags(c)
		},
		After: func(_ *cli.Context) error {
			e.close()
			return nil
		},
		Commands: []*cli.Command{
			inventoryCmd(e),
			listCmd(e),
			deleteCmd(e),
			deleteAllCmd(e),
			profilesCmd(e),
			serveCmd(e),
			mcpCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// applyFlags overlays the global flags on the loaded config.
func (e *env) applyFlags(c *cli.Context) error {
	overlay := &config.Config{
		Store:       c.String("store"),
		Profile:     c.String("profile"),
		Browser:     c.String("browser"),
		DevtoolsURL: c.String("devtools-url"),
		FixturePath: c.String("fixture"),
		LogLevel:    c.String("log-level"),
	}
	if overlay.FixturePath != "" && overlay.Store == "" {
		overlay.Store = config.StoreMemory
	}
	e.cfg = config.Merge(e.cfg, overlay)

	if c.IsSet("log-level") {
		log, err := logger.New(logger.Options{
			Level:      e.cfg.LogLevel,
			File:       e.cfg.LogFile,
			MaxSizeMB:  e.cfg.LogMaxSizeMB,
			MaxBackups: e.cfg.LogMaxBackups,
		})
		if err != nil {
			return outputError(errors.NewInvalidRequest(err.Error()))
		}
		e.log = log
	}

	if err := e.cfg.Validate(); err != nil {
		return outputError(errors.NewInvalidRequest(err.Error()))
	}
	return nil
}

// inventoryCmd creates the inventory command.
func inventoryCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "inventory",
		Usage: "List cookie domains with their cookie counts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sort", Value: ops.SortByDomain, Usage: "Sort key: domain|count"},
			&cli.StringFlag{Name: "order", Value: ops.OrderAsc, Usage: "Sort order: asc|desc"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Rows per page (default: config page_size)"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Rows to skip"},
			&cli.StringFlag{Name: "contains", Aliases: []string{"c"}, Usage: "Only domains containing this text"},
			&cli.BoolFlag{Name: "cookies", Usage: "Include each domain's cookies"},
		},
		Action: func(c *cli.Context) error {
			st, err := e.store(c.Context)
			if err != nil {
				return outputError(err)
			}

			limit := c.Int("limit")
			if limit == 0 {
				limit = e.cfg.PageSize
			}
			output, err := ops.Inventory(c.Context, st, ops.InventoryInput{
				DomainContains: c.String("contains"),
				SortBy:         c.String("sort"),
				Order:          c.String("order"),
				Limit:          limit,
				Offset:         c.Int("offset"),
				IncludeCookies: c.Bool("cookies"),
			})
			if err != nil {
				return outputError(err)
			}

			return e.outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List the cookies of one domain",
		ArgsUsage: "<domain>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Cookies per page"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Cookies to skip"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("domain argument is required"))
			}

			st, err := e.store(c.Context)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.ListDomain(c.Context, st, ops.ListInput{
				Domain: c.Args().First(),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return e.outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete every cookie of the given domains",
		ArgsUsage: "<domain>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "markdown", Aliases: []string{"m"}, Usage: "Print the report as Markdown"},
		},
		Action: func(c *cli.Context) error {
			domains, err := ops.CleanDomains(c.Args().Slice())
			if err != nil {
				return outputError(err)
			}
			if len(domains) == 0 {
				return outputError(errors.NewInvalidRequest("at least one domain argument is required"))
			}

			st, err := e.store(c.Context)
			if err != nil {
				return outputError(err)
			}

			report := ops.DeleteDomains(c.Context, st, domains)
			return e.finishEviction(c, st, report)
		},
	}
}

// deleteAllCmd creates the delete-all command.
func deleteAllCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "delete-all",
		Usage: "Delete every cookie of every domain",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm deleting every cookie"},
			&cli.BoolFlag{Name: "markdown", Aliases: []string{"m"}, Usage: "Print the report as Markdown"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return outputError(errors.NewInvalidRequest("--yes is required to delete every cookie"))
			}

			st, err := e.store(c.Context)
			if err != nil {
				return outputError(err)
			}

			report, err := ops.DeleteAll(c.Context, st)
			if err != nil {
				return outputError(err)
			}
			return e.finishEviction(c, st, report)
		},
	}
}

// finishEviction prints the report, logs the refreshed inventory and turns
// per-domain failures into a non-zero exit.
func (e *env) finishEviction(c *cli.Context, st store.Store, report *ops.EvictionReport) error {
	if c.Bool("markdown") {
		if _, err := io.WriteString(e.out, ops.FormatReportMarkdown(report)); err != nil {
			return err
		}
	} else if err := e.outputJSON(report); err != nil {
		return err
	}

	rows, err := ops.LoadInventory(c.Context, st)
	if err != nil {
		e.log.Err(err, "reload inventory")
	} else {
		cookies := 0
		for _, r := range rows {
			cookies += r.Count
		}
		e.log.Info("inventory refreshed", "report", report.ID, "domains", len(rows), "cookies", cookies)
	}

	if report.Failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d domains failed", report.Failed, len(report.Outcomes)), 1)
	}
	return nil
}

// profilesCmd creates the profiles command.
func profilesCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "profiles",
		Usage: "List browser profiles that hold a cookie database",
		Action: func(_ *cli.Context) error {
			profiles, err := listProfiles(e.cfg)
			if err != nil {
				return outputError(err)
			}
			return e.outputJSON(profiles)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the cookie manager web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8765, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			st, err := e.store(c.Context)
			if err != nil {
				return outputError(err)
			}

			srv, err := web.NewServer(st, e.cfg, e.log, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, e.log)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			return e.runMCP(c.Context)
		},
	}
}

// runMCP serves the MCP tools over stdio.
func (e *env) runMCP(ctx context.Context) error {
	st, err := e.store(ctx)
	if err != nil {
		return outputError(err)
	}
	return mcp.Run(st, e.cfg, e.log, Version)
}

// Helper functions

// outputJSON marshals result to the command output as JSON.
func (e *env) outputJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var cErr *errors.CrumbsError
	if stderrors.As(err, &cErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", cErr.Code, cErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
