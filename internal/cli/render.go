package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Sternrassler/wubba/pkg/catalog"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTable = "table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
)

func parseFormat(name string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(name)); f {
	case formatJSON, formatYAML, formatTable:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format %q (want json, yaml or table)", name)
	}
}

// render prints rows in the given format.
func render(w io.Writer, rows []catalog.Row, format string) error {
	switch format {
	case formatYAML:
		return renderYAML(w, rows)
	case formatTable:
		return renderTable(w, rows)
	default:
		return renderJSON(w, rows)
	}
}

// renderJSON prints one indented JSON document per row.
func renderJSON(w io.Writer, rows []catalog.Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	}
	return nil
}

// renderYAML prints the rows as a YAML document stream.
func renderYAML(w io.Writer, rows []catalog.Row) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	}
	return enc.Close()
}

// renderTable prints one table per run of rows sharing the same columns.
func renderTable(w io.Writer, rows []catalog.Row) error {
	for start := 0; start < len(rows); {
		columns := rows[start].Columns()
		end := start
		var values [][]string
		for end < len(rows) && sameColumns(rows[end].Columns(), columns) {
			values = append(values, rows[end].Values())
			end++
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(borderStyle).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			}).
			Headers(columns...).
			Rows(values...)

		if _, err := fmt.Fprintln(w, t.String()); err != nil {
			return err
		}
		start = end
	}
	return nil
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
