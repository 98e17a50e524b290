// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes ranked posts to a file for reviewers. CSV is the
// default; XLSX, JSON, and YAML carry the same columns in the same order.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/claim-ranker/pkg/types"
)

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultName is the export file name used when none is configured.
const DefaultName = "ranked_fact_checkable_x_posts.csv"

// SheetName names the single worksheet of an XLSX export.
const SheetName = "posts"

// EmptyExportError is returned when there is nothing to write. No file is
// created.
type EmptyExportError struct {
	Destination string
}

func (e *EmptyExportError) Error() string {
	return fmt.Sprintf("no posts to export to %s", e.Destination)
}

// ParseFormat resolves a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "csv", "":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want csv, xlsx, json, or yaml)", s)
	}
}

// Destination returns the output path and format for cfg. An explicit
// Format overrides the file extension.
func Destination(cfg types.ExportConfig) (string, Format, error) {
	name := cfg.Name
	if name == "" {
		name = DefaultName
	}
	spec := cfg.Format
	if spec == "" {
		spec = filepath.Ext(name)
	}
	format, err := ParseFormat(spec)
	if err != nil {
		return "", "", err
	}
	path, err := filepath.Abs(filepath.Join(cfg.Dir, name))
	if err != nil {
		return "", "", fmt.Errorf("resolving export path: %w", err)
	}
	return path, format, nil
}

// Export writes posts to the destination cfg describes and returns its
// absolute path. It returns *EmptyExportError for an empty collection.
func Export(posts []*types.Post, cfg types.ExportConfig) (string, error) {
	path, format, err := Destination(cfg)
	if err != nil {
		return "", err
	}
	if len(posts) == 0 {
		return "", &EmptyExportError{Destination: path}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	table := BuildTable(posts)
	switch format {
	case FormatXLSX:
		err = writeXLSX(path, table)
	case FormatJSON:
		err = writeJSON(path, table)
	case FormatYAML:
		err = writeYAML(path, table)
	default:
		err = writeCSV(path, table)
	}
	if err != nil {
		return "", fmt.Errorf("writing %s export: %w", format, err)
	}
	return path, nil
}

func writeCSV(path string, t Table) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = formatCell(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func writeXLSX(path string, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	for r, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for i, v := range row {
			if v == nil {
				v = ""
			}
			values[i] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return err
		}
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	return f.SaveAs(path)
}

// writeJSON writes an array of objects whose keys follow the table's
// column order.
func writeJSON(path string, t Table) error {
	var buf bytes.Buffer
	buf.WriteString("[")
	for r, row := range t.Rows {
		if r > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  {")
		for i, v := range row {
			if i > 0 {
				buf.WriteString(",")
			}
			k, _ := json.Marshal(t.Columns[i])
			val, err := json.Marshal(v)
			if err != nil {
				return err
			}
			buf.WriteString("\n    ")
			buf.Write(k)
			buf.WriteString(": ")
			buf.Write(val)
		}
		buf.WriteString("\n  }")
	}
	buf.WriteString("\n]\n")
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// writeYAML writes a sequence of mappings whose keys follow the table's
// column order.
func writeYAML(path string, t Table) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range t.Rows {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for i, v := range row {
			var val yaml.Node
			if err := val.Encode(v); err != nil {
				return err
			}
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: t.Columns[i]},
				&val,
			)
		}
		doc.Content = append(doc.Content, m)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
