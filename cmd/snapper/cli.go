package main

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/snapper/internal/config"
	"github.com/hpungsan/snapper/internal/errors"
	"github.com/hpungsan/snapper/internal/mcp"
	"github.com/hpungsan/snapper/internal/ops"
	"github.com/hpungsan/snapper/internal/web"
)

// Default gallery address.
const (
	DefaultBind = "127.0.0.1"
	DefaultPort = 8420
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, launch mcp.Launcher) *cli.App {
	app := &cli.App{
		Name:    "snapper",
		Usage:   "Screenshot and page content capture for browser test runs",
		Version: Version,
		Commands: []*cli.Command{
			captureCmd(db, cfg, launch),
			resolveCmd(cfg),
			listCmd(db),
			showCmd(db),
			purgeCmd(db, cfg),
			reportCmd(db, cfg),
			serveCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// captureCmd creates the capture command.
func captureCmd(db *sql.DB, cfg *config.Config, launch mcp.Launcher) *cli.Command {
	return &cli.Command{
		Name:      "capture",
		Usage:     "Open a URL in the browser and capture its content and screenshot",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "filename", Aliases: []string{"f"}, Usage: "Custom filename pattern"},
			&cli.BoolFlag{Name: "failure", Usage: "Record as a failed-step capture"},
			&cli.BoolFlag{Name: "fullscreen", Usage: "Capture the full page height"},
			&cli.IntFlag{Name: "width", Usage: "Window width for this capture (requires --height)"},
			&cli.IntFlag{Name: "height", Usage: "Window height for this capture (requires --width)"},
			&cli.StringFlag{Name: "feature", Usage: "Feature file the capture belongs to"},
			&cli.StringFlag{Name: "title", Usage: "Feature title"},
			&cli.StringFlag{Name: "step", Usage: "Step text"},
			&cli.IntFlag{Name: "line", Usage: "Step line number"},
			&cli.StringFlag{Name: "run", Usage: "Run ID (default: one per process)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("url is required"))
			}

			if _, err := ops.PrepareDir(db, cfg); err != nil {
				return outputError(err)
			}

			b, err := launch(c.Context)
			if err != nil {
				return outputError(errors.NewBrowser("launch", err))
			}
			defer b.Close()

			capturer := ops.NewCapturer(b, cfg)
			if err := capturer.InitWindow(c.Context); err != nil {
				return outputError(err)
			}

			output, err := ops.Capture(c.Context, db, cfg, b, capturer, ops.CaptureInput{
				URL:          c.Args().First(),
				Filename:     c.String("filename"),
				Failure:      c.Bool("failure"),
				Fullscreen:   c.Bool("fullscreen"),
				Width:        c.Int("width"),
				Height:       c.Int("height"),
				FeatureFile:  c.String("feature"),
				FeatureTitle: c.String("title"),
				StepText:     c.String("step"),
				StepLine:     c.Int("line"),
				RunID:        c.String("run"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// resolveCmd creates the resolve command.
func resolveCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Preview the file name a capture would be written under",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "pattern", Aliases: []string{"p"}, Usage: "Filename pattern (default: configured pattern)"},
			&cli.StringFlag{Name: "ext", Value: "html", Usage: "Extension substituted for {ext}"},
			&cli.BoolFlag{Name: "failure", Usage: "Use the failure pattern"},
			&cli.StringFlag{Name: "feature", Usage: "Feature file"},
			&cli.StringFlag{Name: "step", Usage: "Step text"},
			&cli.IntFlag{Name: "line", Usage: "Step line number"},
			&cli.StringFlag{Name: "url", Usage: "Page URL"},
			&cli.Int64Flag{Name: "timestamp", Usage: "Unix timestamp (default: now)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Resolve(cfg, ops.ResolveInput{
				Pattern:     c.String("pattern"),
				Ext:         c.String("ext"),
				Failure:     c.Bool("failure"),
				FeatureFile: c.String("feature"),
				StepText:    c.String("step"),
				StepLine:    c.Int("line"),
				URL:         c.String("url"),
				Timestamp:   c.Int64("timestamp"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List recorded captures, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "run", Usage: "Filter by run ID"},
			&cli.StringFlag{Name: "feature", Usage: "Filter by feature"},
			&cli.BoolFlag{Name: "failed", Usage: "Only failed-step captures"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(db, ops.ListInput{
				RunID:      c.String("run"),
				Feature:    c.String("feature"),
				FailedOnly: c.Bool("failed"),
				Limit:      c.Int("limit"),
				Offset:     c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one capture by ID",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "content", Aliases: []string{"c"}, Usage: "Include the captured page content"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Fetch(db, ops.FetchInput{
				ID:             c.Args().First(),
				IncludeContent: c.Bool("content"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Remove the files in an artifact directory and their ledger entries",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "Artifact directory (default: configured directory)"},
			&cli.BoolFlag{Name: "ledger-only", Usage: "Keep the files, drop only the ledger entries"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Purge(c.Context, db, cfg, ops.PurgeInput{
				Dir:        c.String("dir"),
				LedgerOnly: c.Bool("ledger-only"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// reportCmd creates the report command.
func reportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Write an HTML index of the captures in the artifact directory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "run", Usage: "Only captures of this run"},
			&cli.BoolFlag{Name: "failed", Usage: "Only failed-step captures"},
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output file inside the artifact directory (default: index.html)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Report(db, cfg, ops.ReportInput{
				RunID:      c.String("run"),
				FailedOnly: c.Bool("failed"),
				Path:       c.String("path"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Browse recorded captures in a local web gallery",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: DefaultBind, Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: DefaultPort, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port < 0 || port > 65535 {
				return outputError(errors.NewInvalidRequest("port must be between 0 and 65535"))
			}

			srv := web.NewServer(db, cfg, Version, c.String("bind"), port)
			srv.ReadHeaderTimeout = 10 * time.Second
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var snapErr *errors.SnapError
	if stderrors.As(err, &snapErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", snapErr.Code, snapErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
