package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/payhub-app/payhub-api/internal/repository"
	"github.com/payhub-app/payhub-api/internal/service"
	"github.com/payhub-app/payhub-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newPaymentService(db *gorm.DB) *service.PaymentService {
	return service.NewPaymentService(
		repository.NewPaymentRepository(db),
		repository.NewInvoiceRepository(db),
		repository.NewInstanceRepository(db),
		repository.NewActionRepository(db),
		db,
		zap.NewNop(),
	)
}

func paymentRequest(invoice *domain.Invoice, net, vatRate float64) *domain.CreatePaymentRequest {
	return &domain.CreatePaymentRequest{
		InvoiceID:   invoice.ID,
		PaymentDate: time.Now().UTC(),
		Type:        string(domain.PaymentTypeDebt),
		NetAmount:   net,
		VATRate:     vatRate,
	}
}

func TestPaymentCreateGeneratesInternalNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newPaymentService(db)

	user := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, user, domain.InvoiceStatusDraft)
	ctx := testutil.ContextWithUser(user)

	first, err := svc.Create(ctx, paymentRequest(invoice, 100, 20))
	require.NoError(t, err)
	assert.Equal(t, invoice.Number+"/PAY-01-DEBT", first.InternalNumber)

	second, err := svc.Create(ctx, paymentRequest(invoice, 100, 20))
	require.NoError(t, err)
	assert.Equal(t, invoice.Number+"/PAY-02-DEBT", second.InternalNumber)
}

func TestPaymentCreateKeepsSuppliedNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newPaymentService(db)

	user := testutil.CreateTestUser(t, db)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, user, domain.InvoiceStatusDraft)

	req := paymentRequest(invoice, 100, 20)
	req.InternalNumber = "CUSTOM-42"

	dto, err := svc.Create(testutil.ContextWithUser(user), req)
	require.NoError(t, err)
	assert.Equal(t, "CUSTOM-42", dto.InternalNumber)
}

func TestPaymentCreateBalanceInvariant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newPaymentService(db)

	user := testutil.CreateTestUser(t, db)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	// Invoice total is 1200.00
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, user, domain.InvoiceStatusDraft)
	ctx := testutil.ContextWithUser(user)

	// 1000 net + 20% VAT = 1200, covers the invoice exactly
	covering, err := svc.Create(ctx, paymentRequest(invoice, 1000, 20))
	require.NoError(t, err)

	// Any further payment would exceed the balance
	_, err = svc.Create(ctx, paymentRequest(invoice, 1, 0))
	assert.ErrorIs(t, err, service.ErrBalanceExceeded)

	// Cancelling the covering payment frees the balance again
	_, err = svc.Cancel(ctx, covering.ID, "")
	require.NoError(t, err)

	_, err = svc.Create(ctx, paymentRequest(invoice, 1, 0))
	assert.NoError(t, err)
}

func TestPaymentCreateInvoiceNotPayable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newPaymentService(db)

	user := testutil.CreateTestUser(t, db)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, user, domain.InvoiceStatusPending)

	_, err := svc.Create(testutil.ContextWithUser(user), paymentRequest(invoice, 100, 20))
	assert.ErrorIs(t, err, service.ErrInvoiceNotPayable)
}

func TestPaymentConfirmFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newPaymentService(db)

	user := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, user, domain.InvoiceStatusDraft)
	ctx := testutil.ContextWithUser(user)

	created, err := svc.Create(ctx, paymentRequest(invoice, 1000, 20))
	require.NoError(t, err)

	// Draft cannot be confirmed directly
	_, err = svc.Confirm(ctx, created.ID, "")
	assert.ErrorIs(t, err, service.ErrPaymentNotPending)

	submitted, err := svc.Submit(ctx, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentStatusPending), submitted.Status)

	confirmed, err := svc.Confirm(ctx, created.ID, "оплачено")
	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentStatusCompleted), confirmed.Status)
	require.NotNil(t, confirmed.ApprovedByID)

	// Confirming twice is reported explicitly
	_, err = svc.Confirm(ctx, created.ID, "")
	assert.ErrorIs(t, err, service.ErrPaymentAlreadyConfirmed)

	// The fully covered invoice rolled up to paid
	var reloaded domain.Invoice
	require.NoError(t, db.Where("id = ?", invoice.ID).First(&reloaded).Error)
	assert.Equal(t, domain.InvoiceStatusPaid, reloaded.Status)
}

func TestPaymentRejectRequiresComment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newPaymentService(db)

	user := testutil.CreateTestUser(t, db)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, user, domain.InvoiceStatusDraft)
	ctx := testutil.ContextWithUser(user)

	created, err := svc.Create(ctx, paymentRequest(invoice, 100, 20))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, created.ID, "")
	require.NoError(t, err)

	_, err = svc.Reject(ctx, created.ID, "")
	assert.ErrorIs(t, err, service.ErrRejectCommentRequired)

	// Whitespace is not a reason either
	_, err = svc.Reject(ctx, created.ID, "   \t")
	assert.ErrorIs(t, err, service.ErrRejectCommentRequired)

	still, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentStatusPending), still.Status)

	rejected, err := svc.Reject(ctx, created.ID, "неверные реквизиты")
	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentStatusFailed), rejected.Status)
	assert.Equal(t, "неверные реквизиты", rejected.Comment)
}

func TestPaymentCancelOnlyCreator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newPaymentService(db)

	creator := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	other := testutil.CreateTestUser(t, db, domain.RoleApprover)
	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, creator, domain.InvoiceStatusDraft)

	created, err := svc.Create(testutil.ContextWithUser(creator), paymentRequest(invoice, 100, 20))
	require.NoError(t, err)

	// Nobody but the creator may cancel, admins included
	_, err = svc.Cancel(testutil.ContextWithUser(other), created.ID, "")
	assert.ErrorIs(t, err, service.ErrNotPaymentCreator)
	_, err = svc.Cancel(testutil.ContextWithUser(admin), created.ID, "")
	assert.ErrorIs(t, err, service.ErrNotPaymentCreator)

	cancelled, err := svc.Cancel(testutil.ContextWithUser(creator), created.ID, "дубликат")
	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentStatusCancelled), cancelled.Status)

	// Terminal payments cannot be cancelled again
	_, err = svc.Cancel(testutil.ContextWithUser(creator), created.ID, "")
	assert.ErrorIs(t, err, service.ErrPaymentTerminal)
}

func TestPaymentDeleteRules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newPaymentService(db)

	user := testutil.CreateTestUser(t, db)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, user, domain.InvoiceStatusDraft)
	ctx := testutil.ContextWithUser(user)

	pending, err := svc.Create(ctx, paymentRequest(invoice, 100, 20))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, pending.ID, "")
	require.NoError(t, err)

	err = svc.Delete(ctx, pending.ID)
	assert.ErrorIs(t, err, service.ErrPaymentNotDeletable)

	draft, err := svc.Create(ctx, paymentRequest(invoice, 100, 20))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, draft.ID))

	_, err = svc.GetByID(ctx, draft.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestInvoiceBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newPaymentService(db)

	user := testutil.CreateTestUser(t, db)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, user, domain.InvoiceStatusDraft)
	ctx := testutil.ContextWithUser(user)

	balance, err := svc.InvoiceBalance(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1200.00, balance)

	_, err = svc.Create(ctx, paymentRequest(invoice, 500, 20))
	require.NoError(t, err)

	balance, err = svc.InvoiceBalance(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, 600.00, balance)
}

func TestPaymentRequiresAuthContext(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newPaymentService(db)

	user := testutil.CreateTestUser(t, db)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, user, domain.InvoiceStatusDraft)

	_, err := svc.Create(context.Background(), paymentRequest(invoice, 100, 20))
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestNextInternalNumberSkipsForeignFormats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newPaymentService(db)

	user := testutil.CreateTestUser(t, db)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, user, domain.InvoiceStatusDraft)
	ctx := testutil.ContextWithUser(user)

	manual := paymentRequest(invoice, 10, 0)
	manual.InternalNumber = "MANUAL-99"
	_, err := svc.Create(ctx, manual)
	require.NoError(t, err)

	generated, err := svc.Create(ctx, paymentRequest(invoice, 10, 0))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(generated.InternalNumber, "/PAY-01-DEBT"),
		"got %s", generated.InternalNumber)
}
