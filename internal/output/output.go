package output

import (
	"fmt"
	"strings"

	"github.com/vantagegate/vantagegate/internal/core/registry"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// Formatter renders tool listings and invocation results.
type Formatter interface {
	FormatTools(tools []registry.ToolInfo) (string, error)
	FormatResult(tool string, result any) (string, error)
	FormatOutcomes(outcomes []registry.Outcome) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatMarkdown:
		return &TableFormatter{Markdown: true}
	default:
		return &TableFormatter{}
	}
}

// outcomeView is the serialized form of a batch outcome.
type outcomeView struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args,omitempty"`
	OK     bool           `json:"ok"`
	Result any            `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
	Kind   string         `json:"kind,omitempty"`
}

func outcomeViews(outcomes []registry.Outcome) []outcomeView {
	views := make([]outcomeView, 0, len(outcomes))
	for _, o := range outcomes {
		view := outcomeView{Tool: o.Call.Tool, Args: o.Call.Args, OK: o.Err == nil, Result: o.Result}
		if o.Err != nil {
			view.Error = o.Err.Error()
			view.Kind = kindLabel(o.Err)
		}
		views = append(views, view)
	}
	return views
}
