package output

import (
	"encoding/json"

	"github.com/vantagegate/vantagegate/internal/core"
	"github.com/vantagegate/vantagegate/internal/core/registry"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) FormatTools(tools []registry.ToolInfo) (string, error) {
	return f.encode(tools)
}

// FormatResult renders the normalized result as is. Ordered records keep
// the provider's field order.
func (f *JSONFormatter) FormatResult(tool string, result any) (string, error) {
	return f.encode(result)
}

func (f *JSONFormatter) FormatOutcomes(outcomes []registry.Outcome) (string, error) {
	return f.encode(outcomeViews(outcomes))
}

func (f *JSONFormatter) encode(value any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func kindLabel(err error) string {
	if kind := core.KindOf(err); kind != core.KindUnknown {
		return string(kind)
	}
	return "error"
}
