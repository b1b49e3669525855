package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Column defines one spreadsheet column: the header label and a value
// extractor for a row item.
type Column struct {
	Header string
	Value  func(inv *domain.Invoice) interface{}
}

// ExcelExporter renders invoice registers as .xlsx workbooks
type ExcelExporter struct {
	logger *zap.Logger
}

func NewExcelExporter(logger *zap.Logger) *ExcelExporter {
	return &ExcelExporter{logger: logger}
}

// Filename builds the export file name as {base}_{YYYY-MM-DD_HH-mm}.xlsx
func Filename(base string, at time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", base, at.Format("2006-01-02_15-04"))
}

// InvoiceColumns is the default column set of the invoice register
func InvoiceColumns() []Column {
	return []Column{
		{Header: "Номер", Value: func(inv *domain.Invoice) interface{} { return inv.Number }},
		{Header: "Дата", Value: func(inv *domain.Invoice) interface{} { return inv.InvoiceDate }},
		{Header: "Поставщик", Value: func(inv *domain.Invoice) interface{} {
			if inv.Supplier != nil {
				return inv.Supplier.Name
			}
			return nil
		}},
		{Header: "Плательщик", Value: func(inv *domain.Invoice) interface{} {
			if inv.Payer != nil {
				return inv.Payer.Name
			}
			return nil
		}},
		{Header: "Проект", Value: func(inv *domain.Invoice) interface{} {
			if inv.Project != nil {
				return inv.Project.Name
			}
			return nil
		}},
		{Header: "МОЛ", Value: func(inv *domain.Invoice) interface{} {
			if inv.MaterialPerson != nil {
				return inv.MaterialPerson.FullName
			}
			return nil
		}},
		{Header: "Тип", Value: func(inv *domain.Invoice) interface{} { return string(inv.Type) }},
		{Header: "Статус", Value: func(inv *domain.Invoice) interface{} { return string(inv.Status) }},
		{Header: "Сумма без НДС", Value: func(inv *domain.Invoice) interface{} { return inv.NetAmount }},
		{Header: "НДС", Value: func(inv *domain.Invoice) interface{} { return inv.VATAmount }},
		{Header: "Сумма с НДС", Value: func(inv *domain.Invoice) interface{} { return inv.TotalAmount }},
		{Header: "Оплачено", Value: func(inv *domain.Invoice) interface{} {
			var sum float64
			for _, p := range inv.Payments {
				if p.Status == domain.PaymentStatusCompleted {
					sum += p.TotalAmount
				}
			}
			return domain.Round2(sum)
		}},
		{Header: "Оплачен полностью", Value: func(inv *domain.Invoice) interface{} {
			return inv.Status == domain.InvoiceStatusPaid
		}},
	}
}

// InvoiceRegister renders the invoices into a workbook and returns the
// raw .xlsx bytes.
func (e *ExcelExporter) InvoiceRegister(invoices []domain.Invoice, columns []Column) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Счета"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, col.Header); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for rowIdx := range invoices {
		inv := &invoices[rowIdx]
		for colIdx, col := range columns {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, FormatCell(col.Value(inv))); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("выгрузка сформирована",
		zap.Int("rows", len(invoices)),
		zap.Int("columns", len(columns)),
	)

	return buf.Bytes(), nil
}

// FormatCell normalizes values for spreadsheet cells: booleans become
// Да/Нет, dates use DD.MM.YYYY, slices join with a comma, maps render as
// JSON, floats round to kopecks. Nil becomes an empty cell.
func FormatCell(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return ""
	case bool:
		if val {
			return "Да"
		}
		return "Нет"
	case time.Time:
		return val.Format("02.01.2006")
	case *time.Time:
		if val == nil {
			return ""
		}
		return val.Format("02.01.2006")
	case float64:
		return domain.Round2(val)
	case []string:
		return strings.Join(val, ", ")
	case []interface{}:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = fmt.Sprintf("%v", FormatCell(item))
		}
		return strings.Join(parts, ", ")
	case map[string]interface{}:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	default:
		return val
	}
}
