package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/payhub-app/payhub-api/internal/repository"
	"github.com/payhub-app/payhub-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedPayment(t *testing.T, db *gorm.DB, status domain.PaymentStatus, number string) *domain.Payment {
	t.Helper()

	accountant := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, accountant, domain.InvoiceStatusApproved)

	payment := &domain.Payment{
		InvoiceID:      invoice.ID,
		InternalNumber: number,
		PaymentDate:    time.Now(),
		Type:           domain.PaymentTypeDebt,
		NetAmount:      100,
		VATRate:        20,
		VATAmount:      20,
		TotalAmount:    120,
		Status:         status,
		CreatedByID:    accountant.ID,
	}
	require.NoError(t, db.Create(payment).Error)
	return payment
}

func TestListPendingSync(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPaymentRepository(db)
	ctx := context.Background()

	completed := seedPayment(t, db, domain.PaymentStatusCompleted, "СЧ-1/PAY-01-DEBT")
	seedPayment(t, db, domain.PaymentStatusPending, "СЧ-2/PAY-01-DEBT")

	recent := seedPayment(t, db, domain.PaymentStatusCompleted, "СЧ-3/PAY-01-DEBT")
	now := time.Now().UTC()
	require.NoError(t, db.Model(recent).Update("last_sync_at", now).Error)

	// Never-synced completed payments show up, recently-synced ones do not
	pending, err := repo.ListPendingSync(ctx, now.Add(-time.Hour), 50)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, completed.ID, pending[0].ID)

	// With the cutoff in the future the recently-synced payment is due again
	pending, err = repo.ListPendingSync(ctx, now.Add(time.Hour), 50)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestMarkSynced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPaymentRepository(db)
	ctx := context.Background()

	payment := seedPayment(t, db, domain.PaymentStatusCompleted, "СЧ-1/PAY-01-DEBT")
	require.NoError(t, repo.MarkSynced(ctx, payment.ID, "1C-000123"))

	var got domain.Payment
	require.NoError(t, db.First(&got, "id = ?", payment.ID).Error)
	require.NotNil(t, got.ExternalID)
	assert.Equal(t, "1C-000123", *got.ExternalID)
	assert.NotNil(t, got.LastSyncAt)
}
