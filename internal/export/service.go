// Package export produces downloadable artifacts from scan history.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cardsnap/cardsnap/internal/history"
)

// Service is a tiny façade over the history store that produces XLSX bytes.
type Service struct {
	store  history.Store
	logger *slog.Logger
}

func NewService(store history.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ExportContactsXLSX returns an XLSX workbook (as bytes) for the scans
// matching the filter. An empty result still yields a workbook with the
// header row.
func (s *Service) ExportContactsXLSX(ctx context.Context, filter history.ListFilter) ([]byte, error) {
	start := time.Now()

	entries, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Contacts"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Scanned At",
		"Name",
		"Company",
		"Job Title",
		"Phone",
		"Mobile",
		"Email",
		"Address",
		"Website",
		"Notes",
		"Confidence",
		"Source",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, e := range entries {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, e.CreatedAt.Format("2006-01-02 15:04"))
		write(2, deref(e.Contact.Name))
		write(3, deref(e.Contact.Company))
		write(4, deref(e.Contact.JobTitle))
		write(5, deref(e.Contact.Phone))
		write(6, deref(e.Contact.Mobile))
		write(7, deref(e.Contact.Email))
		write(8, truncate(deref(e.Contact.Address), 140))
		write(9, deref(e.Contact.Website))
		write(10, truncate(deref(e.Contact.Notes), 140))
		write(11, fmt.Sprintf("%.2f", e.Contact.Confidence))
		write(12, string(e.Contact.Source))

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 17) // scanned at
	_ = f.SetColWidth(sheet, "B", "C", 24) // name, company
	_ = f.SetColWidth(sheet, "D", "D", 22) // title
	_ = f.SetColWidth(sheet, "E", "G", 20) // phone, mobile, email
	_ = f.SetColWidth(sheet, "H", "H", 40) // address
	_ = f.SetColWidth(sheet, "I", "J", 28) // website, notes

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(entries),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
