package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/facility-ledger/internal/config"
)

// Repository defines the persistence operations supported by the Google Sheets adapter.
type Repository interface {
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
	OverwriteRange(ctx context.Context, sheetRange string, rows [][]interface{}) error
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	r.logger.Debug("range read from sheet", zap.String("range", sheetRange), zap.Int("rows", len(resp.Values)))
	return resp.Values, nil
}

// OverwriteRange writes rows starting at the top-left cell of sheetRange.
// Values are stored as typed so quantity text is never reinterpreted.
func (r *GoogleSheetRepository) OverwriteRange(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: rows}

	call := r.service.Spreadsheets.Values.Update(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("RAW").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("overwrite range %s: %w", sheetRange, err)
	}

	r.logger.Debug("range overwritten", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	return nil
}
