// Package export writes the record store to Internship_Data.xlsx.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/offerscan/constants"
	"github.com/joseph-ayodele/offerscan/internal/core/fields"
)

// ErrNoData is returned when the store is empty or every entry is absent.
var ErrNoData = errors.New("no data to export")

// Result describes a delivered export.
type Result struct {
	Location string
	Rows     int
}

// Service filters the store and hands XLSX bytes to a Sink.
type Service struct {
	sink   Sink
	logger *slog.Logger
}

func NewService(sink Sink, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{sink: sink, logger: logger}
}

// Export keeps every present entry in store order, including error
// sentinels, and delivers the workbook under the fixed export file name.
// Nothing is delivered when there is no present entry.
func (s *Service) Export(ctx context.Context, records []*fields.Record) (Result, error) {
	start := time.Now()

	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		rows = append(rows, r.Map())
	}
	if len(rows) == 0 {
		s.logger.Info("export.xlsx.empty", "records", len(records))
		return Result{}, ErrNoData
	}

	data, err := BuildWorkbook(rows)
	if err != nil {
		return Result{}, err
	}
	loc, err := s.sink.Deliver(ctx, constants.ExportFileName, data)
	if err != nil {
		return Result{}, fmt.Errorf("deliver %s: %w", constants.ExportFileName, err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"skipped", len(records)-len(rows),
		"location", loc,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{Location: loc, Rows: len(rows)}, nil
}

// BuildWorkbook renders rows into a single-sheet workbook with a header row
// of the export columns, in the given order.
func BuildWorkbook(rows []map[string]string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = constants.ExportSheetName
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(constants.Columns))
	for i, c := range constants.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		vals := make([]any, len(constants.Columns))
		for j, c := range constants.Columns {
			vals[j] = r[c]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 28) // name
	_ = f.SetColWidth(sheet, "B", "B", 36) // company
	_ = f.SetColWidth(sheet, "C", "C", 14) // duration

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
