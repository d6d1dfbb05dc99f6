package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"simreg/internal/domain"
)

// BOM is the UTF-8 byte order mark written first for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

var csvColumns = []string{"Step", "Screen", "Phase", "Wizards", "Generated At"}

// CSVWriter wraps csv.Writer for exporting funnel rows.
type CSVWriter struct {
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader() error {
	return w.csv.Write(csvColumns)
}

// WriteRows writes one line per funnel row.
func (w *CSVWriter) WriteRows(rows []domain.FunnelRow, generatedAt time.Time) error {
	stamp := generatedAt.UTC().Format(time.RFC3339)
	for _, r := range rows {
		line := []string{
			strconv.Itoa(int(r.Step)),
			string(r.Screen),
			strconv.Itoa(r.Step.Phase()),
			strconv.Itoa(r.Wizards),
			stamp,
		}
		if err := w.csv.Write(line); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer and returns its error.
func (w *CSVWriter) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

// WriteFunnelCSV writes the BOM, header and rows to out.
func WriteFunnelCSV(out io.Writer, rows []domain.FunnelRow, generatedAt time.Time) error {
	if _, err := out.Write(BOM); err != nil {
		return err
	}
	w := NewCSVWriter(out)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if err := w.WriteRows(rows, generatedAt); err != nil {
		return err
	}
	return w.Flush()
}
