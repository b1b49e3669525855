package export

import (
	"testing"
	"time"

	"github.com/payhub-app/payhub-api/internal/domain"
	"go.uber.org/zap"
)

func TestFormatCell(t *testing.T) {
	stamp := time.Date(2024, 3, 7, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"nil", nil, ""},
		{"true", true, "Да"},
		{"false", false, "Нет"},
		{"time", stamp, "07.03.2024"},
		{"time pointer", &stamp, "07.03.2024"},
		{"nil time pointer", (*time.Time)(nil), ""},
		{"float rounds to kopecks", 1234.5678, 1234.57},
		{"string slice", []string{"goods", "services"}, "goods, services"},
		{"mixed slice", []interface{}{true, "x"}, "Да, x"},
		{"string passthrough", "как есть", "как есть"},
		{"int passthrough", 42, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCell(tt.in); got != tt.want {
				t.Errorf("FormatCell(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	at := time.Date(2024, 3, 7, 15, 4, 59, 0, time.UTC)
	got := Filename("invoices", at)
	want := "invoices_2024-03-07_15-04.xlsx"
	if got != want {
		t.Errorf("Filename() = %q, want %q", got, want)
	}
}

func TestInvoiceRegister(t *testing.T) {
	exporter := NewExcelExporter(zap.NewNop())

	supplier := &domain.Contractor{Name: "ООО Ромашка"}
	invoices := []domain.Invoice{
		{
			Number:      "СЧ-1",
			InvoiceDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			Supplier:    supplier,
			Type:        domain.InvoiceTypeGoods,
			Status:      domain.InvoiceStatusPaid,
			NetAmount:   1000,
			VATAmount:   200,
			TotalAmount: 1200,
			Payments: []domain.Payment{
				{Status: domain.PaymentStatusCompleted, TotalAmount: 1200},
				{Status: domain.PaymentStatusCancelled, TotalAmount: 500},
			},
		},
	}

	data, err := exporter.InvoiceRegister(invoices, InvoiceColumns())
	if err != nil {
		t.Fatalf("InvoiceRegister() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("InvoiceRegister() returned empty workbook")
	}
	// xlsx files are zip archives
	if data[0] != 'P' || data[1] != 'K' {
		t.Errorf("InvoiceRegister() did not produce a zip container, got %x", data[:2])
	}
}

func TestInvoiceColumnsPaidSum(t *testing.T) {
	cols := InvoiceColumns()
	var paid Column
	for _, c := range cols {
		if c.Header == "Оплачено" {
			paid = c
		}
	}
	if paid.Value == nil {
		t.Fatal("column Оплачено not found")
	}

	inv := &domain.Invoice{Payments: []domain.Payment{
		{Status: domain.PaymentStatusCompleted, TotalAmount: 100.25},
		{Status: domain.PaymentStatusCompleted, TotalAmount: 200.25},
		{Status: domain.PaymentStatusFailed, TotalAmount: 999},
	}}
	if got := paid.Value(inv); got != 300.50 {
		t.Errorf("paid sum = %v, want 300.50", got)
	}
}
