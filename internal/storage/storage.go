package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dermotte/annotate-video-with-multimodal-model/internal/models"
)

// Format is the delimited file layout of the result table
type Format string

const (
	FormatCSV Format = "csv"
	FormatTSV Format = "tsv"
)

// Columns is the fixed column order of the result table
var Columns = []string{"timestamp", "title", "caption", "scene_description", "persons", "objects"}

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatTSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want csv or tsv)", s)
	}
}

func (f Format) delimiter() rune {
	if f == FormatTSV {
		return '\t'
	}
	return ','
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// OutputPath returns the sibling of videoPath with its extension replaced
func OutputPath(videoPath string, f Format) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + f.Extension()
}

// Flatten joins a list field for tabular storage, preserving order
func Flatten(items []string) string {
	return strings.Join(items, ", ")
}

// Table accumulates annotation rows in the order they are added
type Table struct {
	rows []models.Row
}

// NewTable creates an empty result table
func NewTable() *Table {
	return &Table{}
}

// AddResult flattens an annotation and appends it
func (t *Table) AddResult(a models.Annotation) {
	t.rows = append(t.rows, models.Row{
		Timestamp:        a.Timestamp,
		Title:            a.Title,
		Caption:          a.Caption,
		SceneDescription: a.SceneDescription,
		Persons:          Flatten(a.Persons),
		Objects:          Flatten(a.Objects),
	})
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns the accumulated rows
func (t *Table) Rows() []models.Row {
	return t.rows
}
