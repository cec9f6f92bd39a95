// Package sheetstore persists captured leads and receiver errors to an
// Excel workbook on disk. It is the durable append-only table behind the
// webhook receiver.
package sheetstore

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/brighthome/leadquiz/internal/leads"
	"github.com/brighthome/leadquiz/pkg/logging"
)

const (
	// LeadSheet holds one row per accepted lead.
	LeadSheet = "Leads"
	// ErrorSheet holds one row per failed receiver request.
	ErrorSheet = "Errors"

	dataColumns = "A:H"
)

// LeadHeader is the fixed column order for the lead sheet. Appended rows
// must match this order exactly.
var LeadHeader = []string{"Timestamp", "First Name", "Last Name", "Phone", "Email", "Zip Code", "Quiz Answers", "Source URL"}

// ErrorHeader is the fixed column order for the error log sheet.
var ErrorHeader = []string{"Timestamp", "Error Message", "Stack Trace", "Raw Payload"}

// Store appends rows to a workbook file. Appends are serialized by a single
// mutex; the workbook is opened, modified and saved inside the critical
// section so concurrent callers never race on the file.
type Store struct {
	path   string
	logger *logging.Logger

	mu sync.Mutex
}

// NewStore creates a workbook-backed store at path. The workbook and its
// sheets are created lazily on first append.
func NewStore(path string, logger *logging.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("sheetstore: workbook path is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{path: path, logger: logger.WithComponent("sheetstore")}, nil
}

// AppendLead writes one row in the fixed lead column order.
func (s *Store) AppendLead(p *leads.Payload) error {
	if p == nil {
		return errors.New("sheetstore: nil payload")
	}
	row := []any{p.Timestamp, p.FirstName, p.LastName, p.Phone, p.Email, p.Zip, p.QuizAnswers, p.PageURL}
	return s.append(LeadSheet, LeadHeader, row)
}

// AppendError writes one error-log row. The raw request body is preserved
// verbatim so a rejected lead can be recovered by hand.
func (s *Store) AppendError(message, stack, rawPayload string) error {
	row := []any{time.Now().UTC().Format(time.RFC3339), message, stack, rawPayload}
	return s.append(ErrorSheet, ErrorHeader, row)
}

func (s *Store) append(sheet string, header []string, row []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			s.logger.Warn("failed to close workbook", "error", closeErr)
		}
	}()

	next, err := s.ensureSheet(f, sheet, header)
	if err != nil {
		return err
	}

	cell, err := excelize.CoordinatesToCellName(1, next)
	if err != nil {
		return fmt.Errorf("sheetstore: resolve row %d: %w", next, err)
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("sheetstore: write row: %w", err)
	}
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("sheetstore: save workbook: %w", err)
	}
	return nil
}

func (s *Store) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path)
	if err == nil {
		return f, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("sheetstore: open workbook: %w", err)
	}
	return excelize.NewFile(), nil
}

// ensureSheet creates the sheet with its protected header row if it does not
// exist yet and returns the 1-based index of the next free row.
func (s *Store) ensureSheet(f *excelize.File, sheet string, header []string) (int, error) {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return 0, fmt.Errorf("sheetstore: look up sheet %s: %w", sheet, err)
	}
	if idx >= 0 {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return 0, fmt.Errorf("sheetstore: read sheet %s: %w", sheet, err)
		}
		return len(rows) + 1, nil
	}

	if _, err := f.NewSheet(sheet); err != nil {
		return 0, fmt.Errorf("sheetstore: create sheet %s: %w", sheet, err)
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return 0, fmt.Errorf("sheetstore: write header: %w", err)
	}
	if err := s.protectHeader(f, sheet); err != nil {
		return 0, err
	}

	// Drop the default sheet once a real one exists.
	if defaultIdx, err := f.GetSheetIndex("Sheet1"); err == nil && defaultIdx >= 0 && sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}
	return 2, nil
}

// protectHeader locks the sheet with only the header row keeping the default
// locked cell style. Data columns are explicitly unlocked so appends still
// work under sheet protection when the file is opened in a spreadsheet app.
func (s *Store) protectHeader(f *excelize.File, sheet string) error {
	unlocked, err := f.NewStyle(&excelize.Style{
		Protection: &excelize.Protection{Locked: false},
	})
	if err != nil {
		return fmt.Errorf("sheetstore: build unlocked style: %w", err)
	}
	if err := f.SetColStyle(sheet, dataColumns, unlocked); err != nil {
		return fmt.Errorf("sheetstore: unlock data columns: %w", err)
	}

	locked, err := f.NewStyle(&excelize.Style{
		Protection: &excelize.Protection{Locked: true},
		Font:       &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("sheetstore: build header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, locked); err != nil {
		return fmt.Errorf("sheetstore: lock header row: %w", err)
	}

	if err := f.ProtectSheet(sheet, &excelize.SheetProtectionOptions{
		AlgorithmName:       "SHA-512",
		SelectLockedCells:   true,
		SelectUnlockedCells: true,
	}); err != nil {
		return fmt.Errorf("sheetstore: protect sheet: %w", err)
	}
	return nil
}
