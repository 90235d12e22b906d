package storage

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dermotte/annotate-video-with-multimodal-model/internal/models"
)

// Flush writes the header and every row to path in one go. The data goes to a temporary
// file next to path which is renamed into place, so a failed write leaves nothing behind
func (t *Table) Flush(path string, f Format) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create results file in '%s': %w", dir, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	w.Comma = f.delimiter()

	if err := w.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range t.rows {
		if err := w.Write(record(row)); err != nil {
			return fmt.Errorf("failed to write row at %ss: %w", FormatTimestamp(row.Timestamp), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close results file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set results file mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move results file to '%s': %w", path, err)
	}
	return nil
}

func record(row models.Row) []string {
	return []string{
		FormatTimestamp(row.Timestamp),
		row.Title,
		row.Caption,
		row.SceneDescription,
		row.Persons,
		row.Objects,
	}
}

// FormatTimestamp renders whole seconds as "5.0" and anything else in its shortest form
func FormatTimestamp(seconds float64) string {
	if seconds == math.Trunc(seconds) {
		return strconv.FormatFloat(seconds, 'f', 1, 64)
	}
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
