package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/tidwall/gjson"

	"github.com/vantagegate/vantagegate/internal/core/registry"
)

// maxCellWidth truncates nested values rendered inside a cell.
const maxCellWidth = 60

// TableFormatter renders results as ASCII or Markdown tables.
type TableFormatter struct {
	Markdown bool
}

func (f *TableFormatter) FormatTools(tools []registry.ToolInfo) (string, error) {
	t := f.newWriter()
	t.AppendHeader(table.Row{"Tool", "Requires", "Description"})
	for _, tool := range tools {
		t.AppendRow(table.Row{tool.Name, tool.Capability.String(), tool.Description})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d tools", len(tools))})
	return f.render(t), nil
}

// FormatResult renders arrays of objects as one row per element and objects
// as key/value rows. Nested values are shown as compact JSON.
func (f *TableFormatter) FormatResult(tool string, result any) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	root := gjson.ParseBytes(data)

	switch {
	case root.IsArray():
		return f.renderRows(root), nil
	case root.IsObject():
		// A single array-of-objects member (news items, economic data) is
		// the interesting part; show the remaining members above it.
		if key, rows, ok := soleArrayMember(root); ok {
			header := f.renderObject(root, key)
			return header + "\n" + f.renderRows(rows), nil
		}
		return f.renderObject(root, ""), nil
	default:
		return root.String(), nil
	}
}

func (f *TableFormatter) FormatOutcomes(outcomes []registry.Outcome) (string, error) {
	t := f.newWriter()
	t.AppendHeader(table.Row{"#", "Tool", "Status", "Detail"})

	failed := 0
	for i, view := range outcomeViews(outcomes) {
		status := "ok"
		detail := ""
		if !view.OK {
			failed++
			status = view.Kind
			detail = view.Error
		} else if data, err := json.Marshal(view.Result); err == nil {
			detail = truncate(string(data))
		}
		t.AppendRow(table.Row{i + 1, view.Tool, status, detail})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d/%d ok", len(outcomes)-failed, len(outcomes)), ""})
	return f.render(t), nil
}

func (f *TableFormatter) renderRows(rows gjson.Result) string {
	items := rows.Array()
	if len(items) == 0 {
		return "(no results)"
	}
	if !items[0].IsObject() {
		t := f.newWriter()
		t.AppendHeader(table.Row{"Value"})
		for _, item := range items {
			t.AppendRow(table.Row{cell(item)})
		}
		return f.render(t)
	}

	var columns []string
	items[0].ForEach(func(key, _ gjson.Result) bool {
		columns = append(columns, key.String())
		return true
	})

	header := make(table.Row, 0, len(columns))
	for _, column := range columns {
		header = append(header, column)
	}

	t := f.newWriter()
	t.AppendHeader(header)
	for _, item := range items {
		row := make(table.Row, 0, len(columns))
		for _, column := range columns {
			row = append(row, cell(item.Get(gjson.Escape(column))))
		}
		t.AppendRow(row)
	}
	return f.render(t)
}

func (f *TableFormatter) renderObject(obj gjson.Result, skip string) string {
	t := f.newWriter()
	t.AppendHeader(table.Row{"Field", "Value"})
	obj.ForEach(func(key, value gjson.Result) bool {
		if key.String() != skip {
			t.AppendRow(table.Row{key.String(), cell(value)})
		}
		return true
	})
	return f.render(t)
}

func (f *TableFormatter) newWriter() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) render(t table.Writer) string {
	if f.Markdown {
		return t.RenderMarkdown()
	}
	return t.Render()
}

func soleArrayMember(obj gjson.Result) (string, gjson.Result, bool) {
	var (
		key   string
		rows  gjson.Result
		count int
	)
	obj.ForEach(func(k, v gjson.Result) bool {
		if v.IsArray() {
			first := v.Get("0")
			if !first.Exists() || first.IsObject() {
				key, rows = k.String(), v
				count++
			}
		}
		return true
	})
	return key, rows, count == 1
}

func cell(value gjson.Result) string {
	switch {
	case !value.Exists():
		return ""
	case value.IsObject(), value.IsArray():
		return truncate(value.Raw)
	default:
		return value.String()
	}
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxCellWidth {
		return s
	}
	return s[:maxCellWidth-3] + "..."
}
