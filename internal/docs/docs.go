// ABOUTME: Human-readable tool catalogue page rendered from markdown.
// ABOUTME: Serves GET /docs with goldmark-converted HTML for operators and integrators.

package docs

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/quillboard/agentgate/internal/tools"
)

// Handler serves the rendered tool reference page.
type Handler struct {
	registry *tools.Registry
	logger   *slog.Logger
}

// NewHandler creates a docs handler backed by the tool registry.
func NewHandler(registry *tools.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{registry: registry, logger: logger}
}

// RegisterRoutes registers the docs endpoint on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/docs", h.handleDocs)
}

func (h *Handler) handleDocs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	md := h.renderMarkdown()

	var htmlBuf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &htmlBuf); err != nil {
		h.logger.Warn("failed to render docs markdown", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, pageShell, htmlBuf.String())
}

// renderMarkdown builds the tool reference as markdown from the registry.
func (h *Handler) renderMarkdown() string {
	var b strings.Builder

	b.WriteString("# Tool Reference\n\n")
	b.WriteString("Calls use JSON-RPC 2.0 over HTTP POST to `/mcp`. ")
	b.WriteString("Authenticate with a `qbk_` API key in the `Authorization: Bearer` header.\n\n")

	for _, def := range h.registry.Definitions() {
		fmt.Fprintf(&b, "## %s\n\n", def.Name)
		fmt.Fprintf(&b, "%s\n\n", def.Description)
		fmt.Fprintf(&b, "Required scope: `%s`\n\n", def.Scope)

		if len(def.Params) == 0 {
			b.WriteString("No parameters.\n\n")
			continue
		}

		b.WriteString("| Parameter | Type | Required | Constraints |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, p := range def.Params {
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n",
				p.Name, p.Type, requiredLabel(p.Required), constraintLabel(p))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func requiredLabel(required bool) string {
	if required {
		return "yes"
	}
	return "no"
}

func constraintLabel(p tools.ParamSpec) string {
	var parts []string
	if len(p.Enum) > 0 {
		parts = append(parts, "one of: "+strings.Join(p.Enum, ", "))
	}
	if p.Minimum != nil {
		parts = append(parts, fmt.Sprintf("min %v", *p.Minimum))
	}
	if p.Maximum != nil {
		parts = append(parts, fmt.Sprintf("max %v", *p.Maximum))
	}
	if p.Default != nil {
		parts = append(parts, fmt.Sprintf("default %v", p.Default))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "; ")
}

const pageShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>agentgate tool reference</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; }
table { border-collapse: collapse; width: 100%%; }
th, td { border: 1px solid #ddd; padding: 0.4rem 0.6rem; text-align: left; }
code { background: #f4f4f4; padding: 0.1rem 0.3rem; border-radius: 3px; }
</style>
</head>
<body>
%s
</body>
</html>
`
