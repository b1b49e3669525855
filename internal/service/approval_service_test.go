package service_test

import (
	"testing"

	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/payhub-app/payhub-api/internal/repository"
	"github.com/payhub-app/payhub-api/internal/service"
	"github.com/payhub-app/payhub-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newApprovalService(db *gorm.DB) *service.ApprovalService {
	return service.NewApprovalService(
		repository.NewInstanceRepository(db),
		repository.NewWorkflowRepository(db),
		repository.NewActionRepository(db),
		db,
		zap.NewNop(),
	)
}

func TestApprovalFullInvoiceFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newApprovalService(db)

	accountant := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	approver := testutil.CreateTestUser(t, db, domain.RoleApprover)
	director := testutil.CreateTestUser(t, db, domain.RoleDirector)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, accountant, domain.InvoiceStatusDraft)
	workflow := testutil.CreateTestWorkflow(t, db,
		[]domain.UserRoleType{domain.RoleApprover},
		[]domain.UserRoleType{domain.RoleDirector},
	)

	instance, err := svc.Start(testutil.ContextWithUser(accountant), domain.WorkflowEntityInvoice, invoice.ID, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, instance.CurrentStagePosition)
	assert.Equal(t, string(domain.InstanceStatusInApproval), instance.Status)

	// Starting moved the invoice to pending
	var pending domain.Invoice
	require.NoError(t, db.Where("id = ?", invoice.ID).First(&pending).Error)
	assert.Equal(t, domain.InvoiceStatusPending, pending.Status)

	// A second route for the same entity is rejected
	_, err = svc.Start(testutil.ContextWithUser(accountant), domain.WorkflowEntityInvoice, invoice.ID, workflow.ID)
	assert.ErrorIs(t, err, service.ErrInstanceAlreadyActive)

	// The accountant holds no role on stage 1
	_, err = svc.Approve(testutil.ContextWithUser(accountant), instance.ID, "")
	assert.ErrorIs(t, err, service.ErrStageRoleMismatch)

	advanced, err := svc.Approve(testutil.ContextWithUser(approver), instance.ID, "проверено")
	require.NoError(t, err)
	assert.Equal(t, 2, advanced.CurrentStagePosition)
	assert.Equal(t, 1, advanced.StagesCompleted)

	finished, err := svc.Approve(testutil.ContextWithUser(director), instance.ID, "")
	require.NoError(t, err)
	assert.Equal(t, string(domain.InstanceStatusApproved), finished.Status)
	require.NotNil(t, finished.CompletedAt)

	// The invoice followed the route to approved
	var approved domain.Invoice
	require.NoError(t, db.Where("id = ?", invoice.ID).First(&approved).Error)
	assert.Equal(t, domain.InvoiceStatusApproved, approved.Status)

	// Terminal instances accept no further actions
	_, err = svc.Approve(testutil.ContextWithUser(director), instance.ID, "")
	assert.ErrorIs(t, err, service.ErrInstanceTerminal)

	// Full history: submit, two approvals
	history, err := svc.History(testutil.ContextWithUser(accountant), domain.WorkflowEntityInvoice, invoice.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
}

func TestApprovalPaymentFinalStageRequiresConfirm(t *testing.T) {
	db := testutil.SetupTestDB(t)
	approvalSvc := newApprovalService(db)
	paymentSvc := newPaymentService(db)

	accountant := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	approver := testutil.CreateTestUser(t, db, domain.RoleApprover)
	director := testutil.CreateTestUser(t, db, domain.RoleDirector)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, accountant, domain.InvoiceStatusDraft)

	workflow := testutil.CreateTestWorkflow(t, db,
		[]domain.UserRoleType{domain.RoleApprover},
		[]domain.UserRoleType{domain.RoleDirector},
	)
	// Make the last stage a confirmation stage
	require.NoError(t, db.Model(&domain.WorkflowStage{}).
		Where("workflow_id = ? AND position = ?", workflow.ID, 2).
		Update("stage_type", domain.StageTypeFinal).Error)

	payment, err := paymentSvc.Create(testutil.ContextWithUser(accountant), paymentRequest(invoice, 1000, 20))
	require.NoError(t, err)

	instance, err := approvalSvc.Start(testutil.ContextWithUser(accountant), domain.WorkflowEntityPayment, payment.ID, workflow.ID)
	require.NoError(t, err)

	// Starting moved the payment to pending
	pendingPayment, err := paymentSvc.GetByID(testutil.ContextWithUser(accountant), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentStatusPending), pendingPayment.Status)

	_, err = approvalSvc.Approve(testutil.ContextWithUser(approver), instance.ID, "")
	require.NoError(t, err)

	// The final stage of a payment route is closed by confirming the
	// payment, not by a generic approval
	_, err = approvalSvc.Approve(testutil.ContextWithUser(director), instance.ID, "")
	assert.ErrorIs(t, err, service.ErrConfirmRequired)

	// The approver does not hold the final stage role
	_, err = paymentSvc.Confirm(testutil.ContextWithUser(approver), payment.ID, "")
	assert.ErrorIs(t, err, service.ErrStageRoleMismatch)

	confirmed, err := paymentSvc.Confirm(testutil.ContextWithUser(director), payment.ID, "оплачено")
	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentStatusCompleted), confirmed.Status)

	// The route finished together with the confirmation
	final, err := approvalSvc.GetByID(testutil.ContextWithUser(director), instance.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.InstanceStatusApproved), final.Status)
}

func TestApprovalRejectRequiresComment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newApprovalService(db)

	accountant := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	approver := testutil.CreateTestUser(t, db, domain.RoleApprover)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, accountant, domain.InvoiceStatusDraft)
	workflow := testutil.CreateTestWorkflow(t, db, []domain.UserRoleType{domain.RoleApprover})

	instance, err := svc.Start(testutil.ContextWithUser(accountant), domain.WorkflowEntityInvoice, invoice.ID, workflow.ID)
	require.NoError(t, err)

	_, err = svc.Reject(testutil.ContextWithUser(approver), instance.ID, "")
	assert.ErrorIs(t, err, service.ErrRejectCommentRequired)

	// Whitespace is not a reason either
	_, err = svc.Reject(testutil.ContextWithUser(approver), instance.ID, " \t ")
	assert.ErrorIs(t, err, service.ErrRejectCommentRequired)

	rejected, err := svc.Reject(testutil.ContextWithUser(approver), instance.ID, "нет договора")
	require.NoError(t, err)
	assert.Equal(t, string(domain.InstanceStatusRejected), rejected.Status)

	var reloaded domain.Invoice
	require.NoError(t, db.Where("id = ?", invoice.ID).First(&reloaded).Error)
	assert.Equal(t, domain.InvoiceStatusRejected, reloaded.Status)
}

func TestApprovalCancelOnlyStarter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newApprovalService(db)

	accountant := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	other := testutil.CreateTestUser(t, db, domain.RoleApprover)
	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, accountant, domain.InvoiceStatusDraft)
	workflow := testutil.CreateTestWorkflow(t, db, []domain.UserRoleType{domain.RoleApprover})

	instance, err := svc.Start(testutil.ContextWithUser(accountant), domain.WorkflowEntityInvoice, invoice.ID, workflow.ID)
	require.NoError(t, err)

	// Nobody but the starter may cancel, admins included
	_, err = svc.Cancel(testutil.ContextWithUser(other), instance.ID, "")
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
	_, err = svc.Cancel(testutil.ContextWithUser(admin), instance.ID, "")
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	cancelled, err := svc.Cancel(testutil.ContextWithUser(accountant), instance.ID, "передумали")
	require.NoError(t, err)
	assert.Equal(t, string(domain.InstanceStatusCancelled), cancelled.Status)

	var reloaded domain.Invoice
	require.NoError(t, db.Where("id = ?", invoice.ID).First(&reloaded).Error)
	assert.Equal(t, domain.InvoiceStatusCancelled, reloaded.Status)
}

func TestApprovalStartValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newApprovalService(db)

	accountant := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, accountant, domain.InvoiceStatusDraft)
	ctx := testutil.ContextWithUser(accountant)

	// Inactive workflow
	inactive := testutil.CreateTestWorkflow(t, db, []domain.UserRoleType{domain.RoleApprover})
	require.NoError(t, db.Model(&domain.Workflow{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)
	_, err := svc.Start(ctx, domain.WorkflowEntityInvoice, invoice.ID, inactive.ID)
	assert.ErrorIs(t, err, service.ErrWorkflowInactive)

	// Workflow without stages
	empty := &domain.Workflow{Name: "Пустой маршрут", IsActive: true}
	require.NoError(t, db.Create(empty).Error)
	_, err = svc.Start(ctx, domain.WorkflowEntityInvoice, invoice.ID, empty.ID)
	assert.ErrorIs(t, err, service.ErrWorkflowNoStages)

	// Non-draft entity
	workflow := testutil.CreateTestWorkflow(t, db, []domain.UserRoleType{domain.RoleApprover})
	require.NoError(t, db.Model(&domain.Invoice{}).Where("id = ?", invoice.ID).
		Update("status", domain.InvoiceStatusApproved).Error)
	_, err = svc.Start(ctx, domain.WorkflowEntityInvoice, invoice.ID, workflow.ID)
	assert.ErrorIs(t, err, service.ErrConflict)
}
