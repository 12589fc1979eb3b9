package registry

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/vantagegate/vantagegate/internal/core"
)

// Kind tags a parameter's accepted value shape.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindEnum
	KindStringList
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindEnum:
		return "enum"
	case KindStringList:
		return "string_list"
	default:
		return "string"
	}
}

// Param declares one tool argument.
type Param struct {
	Name        string
	Kind        Kind
	Description string
	Required    bool
	// Default is applied when the argument is absent. It has the validated
	// value type: string, float64 or []string.
	Default any
	Enum    []string
	Min     *float64
	Max     *float64
	// Upper upper-cases string values (and each list element).
	Upper bool
}

// Schema is the ordered parameter list of a tool.
type Schema []Param

// Args are validated tool arguments. Values are string (KindString, KindEnum),
// float64 (KindNumber) or []string (KindStringList).
type Args map[string]any

// String returns a string argument, or "" when absent.
func (a Args) String(name string) string {
	v, _ := a[name].(string)
	return v
}

// Number returns a numeric argument and whether it was set.
func (a Args) Number(name string) (float64, bool) {
	v, ok := a[name].(float64)
	return v, ok
}

// List returns a string list argument.
func (a Args) List(name string) []string {
	v, _ := a[name].([]string)
	return v
}

// Validate checks raw arguments against the schema, applies defaults and
// returns the normalized arguments. Every offending field is reported in a
// single ValidationError.
func (s Schema) Validate(tool string, raw map[string]any) (Args, error) {
	args := make(Args, len(s))
	problems := make(map[string]string)

	known := make(map[string]struct{}, len(s))
	for _, p := range s {
		known[p.Name] = struct{}{}
	}
	for name := range raw {
		if _, ok := known[name]; !ok {
			problems[name] = "unknown parameter"
		}
	}

	for _, p := range s {
		value, present := raw[p.Name]
		if value == nil || isBlank(value) {
			present = false
		}
		if !present {
			if p.Default != nil {
				args[p.Name] = cloneDefault(p.Default)
				continue
			}
			if p.Required {
				problems[p.Name] = "is required"
			}
			continue
		}

		converted, err := p.convert(value)
		if err != nil {
			problems[p.Name] = err.Error()
			continue
		}
		if converted == nil {
			switch {
			case p.Default != nil:
				args[p.Name] = cloneDefault(p.Default)
			case p.Required:
				problems[p.Name] = "is required"
			}
			continue
		}
		args[p.Name] = converted
	}

	if len(problems) == 0 {
		return args, nil
	}

	fields := make([]string, 0, len(problems))
	for name := range problems {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	details := make([]string, len(fields))
	for i, name := range fields {
		details[i] = name + ": " + problems[name]
	}
	return nil, &core.ValidationError{Tool: tool, Fields: fields, Problems: details}
}

// convert returns the typed value, or nil when a string value is blank.
func (p Param) convert(value any) (any, error) {
	switch p.Kind {
	case KindNumber:
		n, err := toNumber(value)
		if err != nil {
			return nil, err
		}
		if p.Min != nil && n < *p.Min {
			return nil, fmt.Errorf("must be at least %s", formatNumber(*p.Min))
		}
		if p.Max != nil && n > *p.Max {
			return nil, fmt.Errorf("must be at most %s", formatNumber(*p.Max))
		}
		return n, nil

	case KindEnum:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("must be one of %s", strings.Join(p.Enum, ", "))
		}
		for _, allowed := range p.Enum {
			if s == allowed {
				return s, nil
			}
		}
		return nil, fmt.Errorf("must be one of %s", strings.Join(p.Enum, ", "))

	case KindStringList:
		items, err := toStringList(value)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, nil
		}
		if p.Upper {
			for i := range items {
				items[i] = strings.ToUpper(items[i])
			}
		}
		return items, nil

	default:
		s, err := toString(value)
		if err != nil {
			return nil, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		if p.Upper {
			s = strings.ToUpper(s)
		}
		return s, nil
	}
}

func toNumber(value any) (float64, error) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint:
		n = float64(v)
	case uint64:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("must be a number")
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("must be a number")
		}
		n = f
	default:
		return 0, fmt.Errorf("must be a number")
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("must be a finite number")
	}
	return n, nil
}

func toString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return formatNumber(v), nil
	case float32:
		return formatNumber(float64(v)), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return "", fmt.Errorf("must be a string")
	}
}

func toStringList(value any) ([]string, error) {
	var raw []string
	switch v := value.(type) {
	case string:
		raw = strings.Split(v, ",")
	case []string:
		raw = v
	case []any:
		raw = make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("must be a list of strings")
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("must be a list of strings")
	}

	items := make([]string, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items, nil
}

// isBlank treats an empty or whitespace-only string like an omitted argument.
func isBlank(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func cloneDefault(v any) any {
	if list, ok := v.([]string); ok {
		return append([]string(nil), list...)
	}
	return v
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func bound(n float64) *float64 {
	return &n
}

// JSONSchema renders the schema as a JSON-Schema object.
func (s Schema) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s))
	required := make([]string, 0)

	for _, p := range s {
		prop := map[string]any{}
		switch p.Kind {
		case KindNumber:
			prop["type"] = "number"
			if p.Min != nil {
				prop["minimum"] = *p.Min
			}
			if p.Max != nil {
				prop["maximum"] = *p.Max
			}
		case KindEnum:
			prop["type"] = "string"
			prop["enum"] = append([]string(nil), p.Enum...)
		case KindStringList:
			prop["type"] = "array"
			prop["items"] = map[string]any{"type": "string"}
		default:
			prop["type"] = "string"
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Default != nil {
			prop["default"] = cloneDefault(p.Default)
		}
		properties[p.Name] = prop

		if p.Required {
			required = append(required, p.Name)
		}
	}

	out := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}
