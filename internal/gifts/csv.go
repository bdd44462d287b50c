package gifts

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/Ryan02062001/thankaroo-backend/pkg/db/models"
	"github.com/Ryan02062001/thankaroo-backend/pkg/enums"
	pkgerrors "github.com/Ryan02062001/thankaroo-backend/pkg/errors"
)

var csvHeader = []string{"Guest Name", "Gift Description", "Type", "Date", "Thank You Sent"}

// ExportCSV writes the list's gifts as RFC 4180 CSV.
func (s *Service) ExportCSV(ctx context.Context, userID, listID uuid.UUID) ([]byte, error) {
	if _, err := s.lists.RequireOwned(ctx, userID, listID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByList(ctx, listID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list gifts")
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(csvHeader); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv header")
	}
	for i := range rows {
		gift := &rows[i]
		sent := "No"
		if gift.ThankYouSent {
			sent = "Yes"
		}
		record := []string{
			gift.GuestName,
			gift.Description,
			gift.GiftType.String(),
			gift.DateReceived.Format(DateLayout),
			sent,
		}
		if err := writer.Write(record); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv row")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush csv")
	}
	return buf.Bytes(), nil
}

// ImportResult summarizes a CSV import: how many rows landed and what was
// wrong with the ones that did not.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportCSV reads gifts from CSV and inserts the valid rows. Header columns
// are matched case-insensitively in any order. Bad rows are collected and
// reported without blocking the rest, but the plan's gift cap applies to the
// whole batch up front.
func (s *Service) ImportCSV(ctx context.Context, userID, listID uuid.UUID, input io.Reader) (*ImportResult, error) {
	if _, err := s.lists.RequireOwned(ctx, userID, listID); err != nil {
		return nil, err
	}

	reader := csv.NewReader(input)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv header is required")
	}
	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var (
		gifts   []models.Gift
		rowErrs error
		skipped int
		rowNum  = 1
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			skipped++
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("row %d: %w", rowNum, err))
			continue
		}
		gift, err := parseCSVRow(listID, columns, record)
		if err != nil {
			skipped++
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("row %d: %w", rowNum, err))
			continue
		}
		gifts = append(gifts, *gift)
	}

	_, limits, err := s.plans.CurrentLimits(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve plan")
	}
	if limits.MaxGiftsPerList != nil {
		count, err := s.repo.CountByList(ctx, listID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count gifts")
		}
		if count+int64(len(gifts)) > int64(*limits.MaxGiftsPerList) {
			return nil, pkgerrors.New(pkgerrors.CodePlanLimit, "import would exceed the gift limit for this list").
				WithDetails(map[string]any{
					"limit":    *limits.MaxGiftsPerList,
					"used":     count,
					"incoming": len(gifts),
				})
		}
	}

	if err := s.repo.CreateBatch(ctx, gifts); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert gifts")
	}

	result := &ImportResult{Imported: len(gifts), Skipped: skipped}
	for _, err := range multierr.Errors(rowErrs) {
		result.Errors = append(result.Errors, err.Error())
	}
	return result, nil
}

type csvColumns struct {
	guestName   int
	description int
	giftType    int
	date        int
	sent        int
}

func mapColumns(header []string) (*csvColumns, error) {
	columns := &csvColumns{guestName: -1, description: -1, giftType: -1, date: -1, sent: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "guest name":
			columns.guestName = i
		case "gift description":
			columns.description = i
		case "type":
			columns.giftType = i
		case "date":
			columns.date = i
		case "thank you sent":
			columns.sent = i
		}
	}
	if columns.guestName < 0 || columns.description < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv must include Guest Name and Gift Description columns")
	}
	return columns, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseCSVRow(listID uuid.UUID, columns *csvColumns, record []string) (*models.Gift, error) {
	guestName := field(record, columns.guestName)
	description := field(record, columns.description)
	if guestName == "" {
		return nil, fmt.Errorf("guest name is required")
	}
	if description == "" {
		return nil, fmt.Errorf("gift description is required")
	}

	giftType := enums.GiftTypeNonRegistry
	if raw := field(record, columns.giftType); raw != "" {
		if parsed, err := enums.ParseGiftType(strings.ToLower(raw)); err == nil {
			giftType = parsed
		}
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := field(record, columns.date); raw != "" {
		parsed, err := time.ParseInLocation(DateLayout, raw, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("date %q must be YYYY-MM-DD", raw)
		}
		date = parsed
	}

	sent := strings.EqualFold(field(record, columns.sent), "yes")

	gift := &models.Gift{
		ListID:       listID,
		GuestName:    guestName,
		Description:  description,
		GiftType:     giftType,
		DateReceived: date,
		ThankYouSent: sent,
	}
	if sent {
		now := time.Now().UTC()
		gift.ThankYouSentAt = &now
	}
	return gift, nil
}
