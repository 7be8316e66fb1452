// Package report renders balance and history spreadsheets. Pure formatting,
// no decision logic.
package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/xlebussssshek/warehouse-bot/internal/core/domain"
)

const timestampLayout = "2006-01-02 15:04:05"

type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

var stockHeaders = []interface{}{"code", "name", "quantity"}

var historyHeaders = []interface{}{
	"id", "code", "kind", "quantity_delta", "quantity_before",
	"quantity_after", "actor_id", "detail", "recorded_at",
}

// StockReport writes the current balances to a new xlsx file and returns its path.
func (w *Writer) StockReport(skus []domain.SKU) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Stock"
	f.SetSheetName("Sheet1", sheet)
	if err := f.SetSheetRow(sheet, "A1", &stockHeaders); err != nil {
		return "", fmt.Errorf("write headers: %w", err)
	}

	for i, sku := range skus {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", fmt.Errorf("row cell: %w", err)
		}
		row := []interface{}{sku.Code, sku.Name, sku.Quantity}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
	}
	f.SetColWidth(sheet, "A", "C", 15)

	path := w.filename("stock")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save stock report: %w", err)
	}
	return path, nil
}

// HistoryReport writes the full audit log to a new xlsx file and returns its path.
func (w *Writer) HistoryReport(records []domain.TransactionRecord) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "History"
	f.SetSheetName("Sheet1", sheet)
	if err := f.SetSheetRow(sheet, "A1", &historyHeaders); err != nil {
		return "", fmt.Errorf("write headers: %w", err)
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", fmt.Errorf("row cell: %w", err)
		}
		row := []interface{}{
			rec.ID, rec.SKUCode, string(rec.Kind),
			optionalCell(rec.QuantityDelta),
			optionalCell(rec.QuantityBefore),
			optionalCell(rec.QuantityAfter),
			rec.ActorID, rec.Detail,
			rec.RecordedAt.Format(timestampLayout),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
	}
	f.SetColWidth(sheet, "A", "I", 20)

	path := w.filename("history")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save history report: %w", err)
	}
	return path, nil
}

func (w *Writer) filename(prefix string) string {
	name := fmt.Sprintf("%s_%s_%s.xlsx",
		prefix, time.Now().Format("2006-01-02"), uuid.NewString()[:8])
	return filepath.Join(w.dir, name)
}

func optionalCell(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
