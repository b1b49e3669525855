package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/payhub-app/payhub-api/internal/repository"
	"github.com/payhub-app/payhub-api/internal/service"
	"github.com/payhub-app/payhub-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newInvoiceService(db *gorm.DB) *service.InvoiceService {
	return service.NewInvoiceService(
		repository.NewInvoiceRepository(db),
		repository.NewContractorRepository(db),
		db,
		zap.NewNop(),
	)
}

func newContractorService(db *gorm.DB) *service.ContractorService {
	return service.NewContractorService(repository.NewContractorRepository(db), zap.NewNop())
}

func TestInvoiceCreateComputesAmounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newInvoiceService(db)

	accountant := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	ctx := testutil.ContextWithUser(accountant)

	dto, err := svc.Create(ctx, &domain.CreateInvoiceRequest{
		Number:      "СЧ-2024-001",
		InvoiceDate: time.Now(),
		SupplierID:  supplier.ID,
		PayerID:     payer.ID,
		Type:        "goods",
		NetAmount:   999.999,
		VATRate:     20,
	})
	require.NoError(t, err)

	assert.Equal(t, 1000.00, dto.NetAmount)
	assert.Equal(t, 200.00, dto.VATAmount)
	assert.Equal(t, 1200.00, dto.TotalAmount)
	assert.Equal(t, string(domain.InvoiceStatusDraft), dto.Status)
	assert.Equal(t, accountant.ID, dto.CreatedByID)
	assert.Equal(t, supplier.Name, dto.SupplierName)
}

func TestInvoiceCreateUnknownSupplier(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newInvoiceService(db)

	accountant := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	ctx := testutil.ContextWithUser(accountant)

	_, err := svc.Create(ctx, &domain.CreateInvoiceRequest{
		Number:      "СЧ-2024-002",
		InvoiceDate: time.Now(),
		SupplierID:  uuid.New(),
		PayerID:     payer.ID,
		Type:        "goods",
		NetAmount:   100,
		VATRate:     20,
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestInvoiceUpdateRecalculatesAmounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newInvoiceService(db)

	accountant := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, accountant, domain.InvoiceStatusDraft)
	ctx := testutil.ContextWithUser(accountant)

	net := 500.00
	dto, err := svc.Update(ctx, invoice.ID, &domain.UpdateInvoiceRequest{NetAmount: &net})
	require.NoError(t, err)
	assert.Equal(t, 500.00, dto.NetAmount)
	assert.Equal(t, 100.00, dto.VATAmount)
	assert.Equal(t, 600.00, dto.TotalAmount)
}

func TestInvoiceUpdateNonDraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newInvoiceService(db)

	accountant := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, accountant, domain.InvoiceStatusApproved)
	ctx := testutil.ContextWithUser(accountant)

	number := "СЧ-2024-003"
	_, err := svc.Update(ctx, invoice.ID, &domain.UpdateInvoiceRequest{Number: &number})
	assert.ErrorIs(t, err, service.ErrInvoiceNotDraft)
}

func TestInvoiceDeleteWithPayments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newInvoiceService(db)
	paymentSvc := newPaymentService(db)

	accountant := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, accountant, domain.InvoiceStatusDraft)
	ctx := testutil.ContextWithUser(accountant)

	_, err := paymentSvc.Create(ctx, paymentRequest(invoice, 100, 20))
	require.NoError(t, err)

	err = svc.Delete(ctx, invoice.ID)
	assert.ErrorIs(t, err, service.ErrInvoiceHasPayments)
}

func TestInvoiceDeleteWithoutPayments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newInvoiceService(db)

	accountant := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, accountant, domain.InvoiceStatusDraft)
	ctx := testutil.ContextWithUser(accountant)

	require.NoError(t, svc.Delete(ctx, invoice.ID))

	_, err := svc.GetByID(ctx, invoice.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestContractorCreateDuplicateTaxID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newContractorService(db)
	ctx := testutil.ContextWithUser(testutil.CreateTestUser(t, db, domain.RoleAccountant))

	req := &domain.CreateContractorRequest{Name: "ООО Ромашка", TaxID: "7701234567"}
	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = svc.Create(ctx, &domain.CreateContractorRequest{Name: "ООО Лютик", TaxID: "7701234567"})
	assert.ErrorIs(t, err, service.ErrContractorTaxIDTaken)
}

func TestContractorDeleteDeactivatesWhenReferenced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newContractorService(db)

	accountant := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	testutil.CreateTestInvoice(t, db, supplier, payer, accountant, domain.InvoiceStatusDraft)
	ctx := testutil.ContextWithUser(accountant)

	// Referenced by an invoice: deactivated instead of deleted
	require.NoError(t, svc.Delete(ctx, supplier.ID))
	dto, err := svc.GetByID(ctx, supplier.ID)
	require.NoError(t, err)
	assert.False(t, dto.IsActive)

	// Unreferenced: gone for good
	free := testutil.CreateTestContractor(t, db, "Без счетов")
	require.NoError(t, svc.Delete(ctx, free.ID))
	_, err = svc.GetByID(ctx, free.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
