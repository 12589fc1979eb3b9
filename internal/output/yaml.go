package output

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/vantagegate/vantagegate/internal/core/registry"
)

// YAMLFormatter renders results as block-style YAML.
type YAMLFormatter struct{}

func (f *YAMLFormatter) FormatTools(tools []registry.ToolInfo) (string, error) {
	return toYAML(tools)
}

func (f *YAMLFormatter) FormatResult(tool string, result any) (string, error) {
	return toYAML(result)
}

func (f *YAMLFormatter) FormatOutcomes(outcomes []registry.Outcome) (string, error) {
	return toYAML(outcomeViews(outcomes))
}

// toYAML goes through JSON so custom marshalers and key order are honoured;
// the JSON document is parsed as a YAML node tree and re-emitted in block style.
func toYAML(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("convert to yaml: %w", err)
	}
	blockStyle(&doc)

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// blockStyle drops the flow and quoting styles inherited from JSON. Strings
// that would read back as another type are still quoted by the encoder.
func blockStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		blockStyle(child)
	}
}
