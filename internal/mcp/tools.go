package mcp

import "github.com/mark3labs/mcp-go/mcp"

var captureToolDef = mcp.NewTool("screenshot_capture",
	mcp.WithDescription("Capture the current page as an HTML file and a PNG screenshot sharing one "+
		"file name. Optionally navigates to url first. Returns the recorded artifact."),
	mcp.WithString("url", mcp.Description("Page to load before capturing")),
	mcp.WithString("filename", mcp.Description("Custom filename pattern, e.g. \"{feature_file}-{step_name}\"; ignored for failures")),
	mcp.WithBoolean("failure", mcp.Description("Use the failure filename pattern")),
	mcp.WithBoolean("fullscreen", mcp.Description("Capture the whole document instead of the viewport")),
	mcp.WithNumber("width", mcp.Description("Resize the window before capturing (requires height)")),
	mcp.WithNumber("height", mcp.Description("Resize the window before capturing (requires width)")),
	mcp.WithString("feature_file", mcp.Description("Feature file the capture belongs to")),
	mcp.WithString("feature_title", mcp.Description("Feature title for the info header")),
	mcp.WithString("step_text", mcp.Description("Step text for {step_name} and the info header")),
	mcp.WithNumber("step_line", mcp.Description("Step line number for {step_line}")),
	mcp.WithString("run_id", mcp.Description("Groups captures; defaults to one id per server process")),
)

var resolveToolDef = mcp.NewTool("screenshot_resolve_name",
	mcp.WithDescription("Preview the file name a capture would be written under, token by token. "+
		"No browser is needed."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("pattern", mcp.Description("Custom pattern; defaults to the configured pattern")),
	mcp.WithString("ext", mcp.Description("Artifact extension, default html")),
	mcp.WithBoolean("failure", mcp.Description("Use the failure filename pattern")),
	mcp.WithString("feature_file", mcp.Description("Feature file path")),
	mcp.WithString("step_text", mcp.Description("Step text")),
	mcp.WithNumber("step_line", mcp.Description("Step line number")),
	mcp.WithString("url", mcp.Description("Page URL")),
	mcp.WithNumber("timestamp", mcp.Description("Unix seconds; defaults to now")),
)

var listToolDef = mcp.NewTool("screenshot_list",
	mcp.WithDescription("List recorded captures, newest first."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("run_id", mcp.Description("Only captures of this run")),
	mcp.WithString("feature", mcp.Description("Only captures of this feature file")),
	mcp.WithBoolean("failed_only", mcp.Description("Only failure captures")),
	mcp.WithNumber("limit", mcp.Description("Page size, default 20, max 100")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var fetchToolDef = mcp.NewTool("screenshot_fetch",
	mcp.WithDescription("Fetch one recorded capture by id, optionally with its HTML content."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Artifact id")),
	mcp.WithBoolean("include_content", mcp.Description("Include the captured HTML")),
)

var purgeToolDef = mcp.NewTool("screenshot_purge",
	mcp.WithDescription("Delete the files in the artifact directory and their ledger entries."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("dir", mcp.Description("Artifact directory; defaults to the configured one")),
	mcp.WithBoolean("ledger_only", mcp.Description("Keep the files and drop only the ledger entries")),
)

var reportToolDef = mcp.NewTool("screenshot_report",
	mcp.WithDescription("Write an HTML report of the recorded captures into the artifact directory."),
	mcp.WithString("run_id", mcp.Description("Only captures of this run")),
	mcp.WithBoolean("failed_only", mcp.Description("Only failure captures")),
	mcp.WithString("path", mcp.Description("Output .html file directly inside the artifact directory")),
)
