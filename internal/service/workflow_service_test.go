package service_test

import (
	"testing"

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

func newWorkflowService(db *gorm.DB) *service.WorkflowService {
	return service.NewWorkflowService(
		repository.NewWorkflowRepository(db),
		repository.NewInstanceRepository(db),
		db,
		zap.NewNop(),
	)
}

func stageRequest(name, stageType string, roles ...string) domain.StageRequest {
	return domain.StageRequest{Name: name, StageType: stageType, Roles: roles}
}

func TestWorkflowCreateAssignsPositions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newWorkflowService(db)
	ctx := testutil.ContextWithUser(testutil.CreateTestUser(t, db, domain.RoleAdmin))

	dto, err := svc.Create(ctx, &domain.CreateWorkflowRequest{
		Name:         "Согласование закупок",
		InvoiceTypes: []string{"goods"},
		Stages: []domain.StageRequest{
			stageRequest("Проверка", "approval", "approver"),
			stageRequest("Утверждение", "approval", "director"),
			stageRequest("Оплата", "final", "accountant"),
		},
	})
	require.NoError(t, err)
	require.Len(t, dto.Stages, 3)
	for i, stage := range dto.Stages {
		assert.Equal(t, i+1, stage.Position)
	}
	assert.True(t, dto.IsActive)
}

func TestWorkflowCreateFinalMustBeLast(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newWorkflowService(db)
	ctx := testutil.ContextWithUser(testutil.CreateTestUser(t, db, domain.RoleAdmin))

	_, err := svc.Create(ctx, &domain.CreateWorkflowRequest{
		Name: "Неверный маршрут",
		Stages: []domain.StageRequest{
			stageRequest("Оплата", "final", "accountant"),
			stageRequest("Проверка", "approval", "approver"),
		},
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestWorkflowReorderStages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newWorkflowService(db)
	ctx := testutil.ContextWithUser(testutil.CreateTestUser(t, db, domain.RoleAdmin))

	dto, err := svc.Create(ctx, &domain.CreateWorkflowRequest{
		Name: "Маршрут",
		Stages: []domain.StageRequest{
			stageRequest("Первый", "approval", "approver"),
			stageRequest("Второй", "approval", "director"),
			stageRequest("Третий", "approval", "accountant"),
		},
	})
	require.NoError(t, err)

	// Reverse the order
	reordered, err := svc.ReorderStages(ctx, dto.ID, &domain.ReorderStagesRequest{
		StageIDs: []uuid.UUID{dto.Stages[2].ID, dto.Stages[1].ID, dto.Stages[0].ID},
	})
	require.NoError(t, err)
	require.Len(t, reordered.Stages, 3)
	assert.Equal(t, "Третий", reordered.Stages[0].Name)
	assert.Equal(t, "Второй", reordered.Stages[1].Name)
	assert.Equal(t, "Первый", reordered.Stages[2].Name)
	for i, stage := range reordered.Stages {
		assert.Equal(t, i+1, stage.Position)
	}
}

func TestWorkflowReorderValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newWorkflowService(db)
	ctx := testutil.ContextWithUser(testutil.CreateTestUser(t, db, domain.RoleAdmin))

	dto, err := svc.Create(ctx, &domain.CreateWorkflowRequest{
		Name: "Маршрут",
		Stages: []domain.StageRequest{
			stageRequest("Проверка", "approval", "approver"),
			stageRequest("Оплата", "final", "accountant"),
		},
	})
	require.NoError(t, err)

	// Wrong number of ids
	_, err = svc.ReorderStages(ctx, dto.ID, &domain.ReorderStagesRequest{
		StageIDs: []uuid.UUID{dto.Stages[0].ID},
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	// Foreign stage id
	_, err = svc.ReorderStages(ctx, dto.ID, &domain.ReorderStagesRequest{
		StageIDs: []uuid.UUID{dto.Stages[0].ID, uuid.New()},
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	// A final stage may not move off the last position
	_, err = svc.ReorderStages(ctx, dto.ID, &domain.ReorderStagesRequest{
		StageIDs: []uuid.UUID{dto.Stages[1].ID, dto.Stages[0].ID},
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestWorkflowReplaceStages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newWorkflowService(db)
	ctx := testutil.ContextWithUser(testutil.CreateTestUser(t, db, domain.RoleAdmin))

	dto, err := svc.Create(ctx, &domain.CreateWorkflowRequest{
		Name:   "Маршрут",
		Stages: []domain.StageRequest{stageRequest("Старый этап", "approval", "approver")},
	})
	require.NoError(t, err)

	replaced, err := svc.ReplaceStages(ctx, dto.ID, []domain.StageRequest{
		stageRequest("Новый первый", "approval", "approver"),
		stageRequest("Новый второй", "approval", "director"),
	})
	require.NoError(t, err)
	require.Len(t, replaced.Stages, 2)
	assert.Equal(t, "Новый первый", replaced.Stages[0].Name)
	assert.Equal(t, 2, replaced.Stages[1].Position)
}

func TestWorkflowDeleteInUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newWorkflowService(db)
	approvalSvc := newApprovalService(db)

	accountant := testutil.CreateTestUser(t, db, domain.RoleAccountant)
	supplier := testutil.CreateTestContractor(t, db, "Поставщик")
	payer := testutil.CreateTestContractor(t, db, "Плательщик")
	invoice := testutil.CreateTestInvoice(t, db, supplier, payer, accountant, domain.InvoiceStatusDraft)
	workflow := testutil.CreateTestWorkflow(t, db, []domain.UserRoleType{domain.RoleApprover})
	ctx := testutil.ContextWithUser(accountant)

	_, err := approvalSvc.Start(ctx, domain.WorkflowEntityInvoice, invoice.ID, workflow.ID)
	require.NoError(t, err)

	err = svc.Delete(ctx, workflow.ID)
	assert.ErrorIs(t, err, service.ErrWorkflowInUse)
}

func TestWorkflowFindForInvoiceType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newWorkflowService(db)
	ctx := testutil.ContextWithUser(testutil.CreateTestUser(t, db, domain.RoleAdmin))

	_, err := svc.Create(ctx, &domain.CreateWorkflowRequest{
		Name:         "Только товары",
		InvoiceTypes: []string{"goods"},
		Stages:       []domain.StageRequest{stageRequest("Проверка", "approval", "approver")},
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &domain.CreateWorkflowRequest{
		Name:   "Универсальный",
		Stages: []domain.StageRequest{stageRequest("Проверка", "approval", "approver")},
	})
	require.NoError(t, err)

	goods, err := svc.FindForInvoiceType(ctx, domain.InvoiceTypeGoods)
	require.NoError(t, err)
	assert.Len(t, goods, 2)

	services, err := svc.FindForInvoiceType(ctx, domain.InvoiceTypeServices)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "Универсальный", services[0].Name)
}
