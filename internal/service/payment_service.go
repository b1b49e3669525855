package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/auth"
	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/payhub-app/payhub-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// payNumberPattern extracts the sequence number from an internal payment
// number of the form {invoiceNumber}/PAY-{NN}-{TYPE}.
var payNumberPattern = regexp.MustCompile(`/PAY-(\d{2,})-`)

// PaymentService manages the payment lifecycle: creation with the invoice
// balance invariant, submission into approval, confirmation, rejection and
// cancellation. Status transitions and the invoice paid rollup commit in
// one transaction each.
type PaymentService struct {
	paymentRepo  *repository.PaymentRepository
	invoiceRepo  *repository.InvoiceRepository
	instanceRepo *repository.InstanceRepository
	actionRepo   *repository.ActionRepository
	db           *gorm.DB
	logger       *zap.Logger
}

func NewPaymentService(
	paymentRepo *repository.PaymentRepository,
	invoiceRepo *repository.InvoiceRepository,
	instanceRepo *repository.InstanceRepository,
	actionRepo *repository.ActionRepository,
	db *gorm.DB,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo:  paymentRepo,
		invoiceRepo:  invoiceRepo,
		instanceRepo: instanceRepo,
		actionRepo:   actionRepo,
		db:           db,
		logger:       logger,
	}
}

// Create creates a draft payment against an invoice. The sum of all
// non-failed, non-cancelled payments may never exceed the invoice total;
// the check and the insert run in the same transaction. When no internal
// number is supplied one is generated as {invoiceNumber}/PAY-{NN}-{TYPE}.
func (s *PaymentService) Create(ctx context.Context, req *domain.CreatePaymentRequest) (*domain.PaymentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	paymentType := domain.PaymentType(req.Type)
	if !paymentType.IsValid() {
		return nil, fmt.Errorf("%w: unknown payment type %q", ErrInvalidInput, req.Type)
	}

	vatAmount := domain.CalcVAT(req.NetAmount, req.VATRate)
	totalAmount := domain.CalcTotal(req.NetAmount, req.VATRate)

	payment := &domain.Payment{
		InvoiceID:      req.InvoiceID,
		InternalNumber: req.InternalNumber,
		PaymentDate:    req.PaymentDate,
		Type:           paymentType,
		NetAmount:      domain.Round2(req.NetAmount),
		VATRate:        req.VATRate,
		VATAmount:      vatAmount,
		TotalAmount:    totalAmount,
		Status:         domain.PaymentStatusDraft,
		PayerID:        req.PayerID,
		CreatedByID:    userCtx.UserID,
		Comment:        req.Comment,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoice domain.Invoice
		if err := tx.Where("id = ?", req.InvoiceID).First(&invoice).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !invoice.Status.AcceptsPayments() {
			return ErrInvoiceNotPayable
		}

		var existing []domain.Payment
		if err := tx.Where("invoice_id = ?", req.InvoiceID).Find(&existing).Error; err != nil {
			return err
		}

		var activeSum float64
		for _, p := range existing {
			if p.Status == domain.PaymentStatusFailed || p.Status == domain.PaymentStatusCancelled {
				continue
			}
			activeSum += p.TotalAmount
		}
		if domain.Round2(activeSum+totalAmount) > domain.Round2(invoice.TotalAmount) {
			return ErrBalanceExceeded
		}

		if payment.InternalNumber == "" {
			payment.InternalNumber = nextInternalNumber(invoice.Number, paymentType, existing)
		}

		return tx.Create(payment).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvoiceNotPayable) || errors.Is(err, ErrBalanceExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	s.logger.Info("платеж создан",
		zap.String("payment_id", payment.ID.String()),
		zap.String("internal_number", payment.InternalNumber),
		zap.Float64("total", payment.TotalAmount),
		zap.String("created_by", userCtx.DisplayName),
	)

	dto := domain.ToPaymentDTO(payment)
	return &dto, nil
}

// nextInternalNumber scans existing payment numbers of the invoice for the
// highest PAY sequence and formats the next one, zero-padded to two digits.
func nextInternalNumber(invoiceNumber string, paymentType domain.PaymentType, existing []domain.Payment) string {
	maxSeq := 0
	for _, p := range existing {
		m := payNumberPattern.FindStringSubmatch(p.InternalNumber)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxSeq {
			maxSeq = n
		}
	}
	return fmt.Sprintf("%s/PAY-%02d-%s", invoiceNumber, maxSeq+1, paymentType.Suffix())
}

func (s *PaymentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentDTO, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	dto := domain.ToPaymentDTO(payment)
	return &dto, nil
}

func (s *PaymentService) List(ctx context.Context, page, pageSize int, filter *repository.PaymentFilter) (*domain.PaginatedResponse, error) {
	payments, total, err := s.paymentRepo.List(ctx, page, pageSize, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	dtos := make([]domain.PaymentDTO, len(payments))
	for i := range payments {
		dtos[i] = domain.ToPaymentDTO(&payments[i])
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Data:       dtos,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func (s *PaymentService) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.PaymentDTO, error) {
	payments, err := s.paymentRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	dtos := make([]domain.PaymentDTO, len(payments))
	for i := range payments {
		dtos[i] = domain.ToPaymentDTO(&payments[i])
	}
	return dtos, nil
}

// Submit moves a draft payment into approval. Without a workflow the
// payment goes straight to pending; with one, the route is started by the
// approval service which performs the same transition.
func (s *PaymentService) Submit(ctx context.Context, id uuid.UUID, comment string) (*domain.PaymentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment.Status != domain.PaymentStatusDraft {
		return nil, fmt.Errorf("%w: на согласование можно отправить только черновик", ErrConflict)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment.Status = domain.PaymentStatusPending
		if err := tx.Save(payment).Error; err != nil {
			return err
		}
		action := &domain.ApprovalAction{
			EntityType: domain.WorkflowEntityPayment,
			EntityID:   payment.ID,
			Action:     domain.ActionSubmit,
			Comment:    comment,
			ActorID:    userCtx.UserID,
			ActorName:  userCtx.DisplayName,
		}
		return tx.Create(action).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit payment: %w", err)
	}

	s.logger.Info("платеж отправлен на согласование",
		zap.String("payment_id", payment.ID.String()),
		zap.String("internal_number", payment.InternalNumber),
		zap.String("submitted_by", userCtx.DisplayName),
	)

	dto := domain.ToPaymentDTO(payment)
	return &dto, nil
}

// Confirm marks a pending payment as completed. When the payment runs an
// approval route the current stage must be the final one and the actor
// must hold one of its roles. Confirming again is reported explicitly.
// When the invoice becomes fully covered by completed payments it moves to
// paid in the same transaction.
func (s *PaymentService) Confirm(ctx context.Context, id uuid.UUID, comment string) (*domain.PaymentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment.Status == domain.PaymentStatusCompleted {
		return nil, ErrPaymentAlreadyConfirmed
	}
	if payment.Status != domain.PaymentStatusPending {
		return nil, ErrPaymentNotPending
	}

	// Stage role check when an approval route is running
	instance, err := s.instanceRepo.GetActiveForEntity(ctx, domain.WorkflowEntityPayment, payment.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check instance: %w", err)
	}
	if instance != nil {
		stage := stageAt(instance.Workflow, instance.CurrentStagePosition)
		if stage == nil {
			return nil, fmt.Errorf("stage %d missing in workflow %s", instance.CurrentStagePosition, instance.WorkflowID)
		}
		if instance.CurrentStagePosition < len(instance.Workflow.Stages) {
			return nil, fmt.Errorf("%w: маршрут согласован не полностью", ErrConflict)
		}
		if !stage.AllowsRole(userCtx.RolesAsStrings()) {
			return nil, ErrStageRoleMismatch
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		payment.Status = domain.PaymentStatusCompleted
		payment.ApprovedByID = &userCtx.UserID
		payment.ApprovedAt = &now
		if comment != "" {
			payment.Comment = comment
		}
		if err := tx.Save(payment).Error; err != nil {
			return err
		}

		var pos *int
		if instance != nil {
			p := instance.CurrentStagePosition
			pos = &p
			instance.StagesCompleted = p
			instance.Status = domain.InstanceStatusApproved
			instance.CompletedAt = &now
			if err := tx.Save(instance).Error; err != nil {
				return err
			}
		}

		var instanceID *uuid.UUID
		if instance != nil {
			instanceID = &instance.ID
		}
		action := &domain.ApprovalAction{
			InstanceID:    instanceID,
			EntityType:    domain.WorkflowEntityPayment,
			EntityID:      payment.ID,
			StagePosition: pos,
			Action:        domain.ActionConfirm,
			Comment:       comment,
			ActorID:       userCtx.UserID,
			ActorName:     userCtx.DisplayName,
		}
		if err := tx.Create(action).Error; err != nil {
			return err
		}

		return rollupInvoicePaid(tx, payment.InvoiceID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}

	s.logger.Info("платеж подтвержден",
		zap.String("payment_id", payment.ID.String()),
		zap.String("internal_number", payment.InternalNumber),
		zap.Float64("total", payment.TotalAmount),
		zap.String("confirmed_by", userCtx.DisplayName),
	)

	dto := domain.ToPaymentDTO(payment)
	return &dto, nil
}

// rollupInvoicePaid marks the invoice paid once completed payments cover
// its total.
func rollupInvoicePaid(tx *gorm.DB, invoiceID uuid.UUID) error {
	var invoice domain.Invoice
	if err := tx.Where("id = ?", invoiceID).First(&invoice).Error; err != nil {
		return err
	}

	var completedSum float64
	if err := tx.Model(&domain.Payment{}).
		Where("invoice_id = ? AND status = ?", invoiceID, domain.PaymentStatusCompleted).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&completedSum).Error; err != nil {
		return err
	}

	if domain.Round2(completedSum) >= domain.Round2(invoice.TotalAmount) && invoice.Status != domain.InvoiceStatusPaid {
		return tx.Model(&invoice).Update("status", domain.InvoiceStatusPaid).Error
	}
	return nil
}

// Reject fails a pending payment. The reason is mandatory and must be
// checked before any persistence happens.
func (s *PaymentService) Reject(ctx context.Context, id uuid.UUID, comment string) (*domain.PaymentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, ErrRejectCommentRequired
	}

	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment.Status.IsTerminal() {
		return nil, ErrPaymentTerminal
	}
	if payment.Status != domain.PaymentStatusPending {
		return nil, ErrPaymentNotPending
	}

	instance, err := s.instanceRepo.GetActiveForEntity(ctx, domain.WorkflowEntityPayment, payment.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check instance: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		payment.Status = domain.PaymentStatusFailed
		payment.Comment = comment
		if err := tx.Save(payment).Error; err != nil {
			return err
		}

		var instanceID *uuid.UUID
		var pos *int
		if instance != nil {
			instanceID = &instance.ID
			p := instance.CurrentStagePosition
			pos = &p
			instance.Status = domain.InstanceStatusRejected
			instance.CompletedAt = &now
			if err := tx.Save(instance).Error; err != nil {
				return err
			}
		}

		action := &domain.ApprovalAction{
			InstanceID:    instanceID,
			EntityType:    domain.WorkflowEntityPayment,
			EntityID:      payment.ID,
			StagePosition: pos,
			Action:        domain.ActionReject,
			Comment:       comment,
			ActorID:       userCtx.UserID,
			ActorName:     userCtx.DisplayName,
		}
		return tx.Create(action).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reject payment: %w", err)
	}

	s.logger.Info("платеж отклонен",
		zap.String("payment_id", payment.ID.String()),
		zap.String("comment", comment),
		zap.String("rejected_by", userCtx.DisplayName),
	)

	dto := domain.ToPaymentDTO(payment)
	return &dto, nil
}

// Cancel withdraws a payment. Only the creator may cancel, and only
// before the payment reaches a terminal status.
func (s *PaymentService) Cancel(ctx context.Context, id uuid.UUID, comment string) (*domain.PaymentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment.Status.IsTerminal() {
		return nil, ErrPaymentTerminal
	}
	if payment.CreatedByID != userCtx.UserID {
		return nil, ErrNotPaymentCreator
	}

	instance, err := s.instanceRepo.GetActiveForEntity(ctx, domain.WorkflowEntityPayment, payment.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check instance: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		payment.Status = domain.PaymentStatusCancelled
		if comment != "" {
			payment.Comment = comment
		}
		if err := tx.Save(payment).Error; err != nil {
			return err
		}

		var instanceID *uuid.UUID
		var pos *int
		if instance != nil {
			instanceID = &instance.ID
			p := instance.CurrentStagePosition
			pos = &p
			instance.Status = domain.InstanceStatusCancelled
			instance.CompletedAt = &now
			if err := tx.Save(instance).Error; err != nil {
				return err
			}
		}

		action := &domain.ApprovalAction{
			InstanceID:    instanceID,
			EntityType:    domain.WorkflowEntityPayment,
			EntityID:      payment.ID,
			StagePosition: pos,
			Action:        domain.ActionCancel,
			Comment:       comment,
			ActorID:       userCtx.UserID,
			ActorName:     userCtx.DisplayName,
		}
		return tx.Create(action).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cancel payment: %w", err)
	}

	s.logger.Info("платеж отменен",
		zap.String("payment_id", payment.ID.String()),
		zap.String("cancelled_by", userCtx.DisplayName),
	)

	dto := domain.ToPaymentDTO(payment)
	return &dto, nil
}

// Delete removes a payment permanently. Only drafts and cancelled
// payments can be deleted; this is the single enforcement point.
func (s *PaymentService) Delete(ctx context.Context, id uuid.UUID) error {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get payment: %w", err)
	}

	if payment.Status != domain.PaymentStatusDraft && payment.Status != domain.PaymentStatusCancelled {
		return ErrPaymentNotDeletable
	}

	if err := s.paymentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}

	s.logger.Info("платеж удален",
		zap.String("payment_id", id.String()),
		zap.String("internal_number", payment.InternalNumber),
	)
	return nil
}

// InvoiceBalance returns the remaining amount payable on an invoice
func (s *PaymentService) InvoiceBalance(ctx context.Context, invoiceID uuid.UUID) (float64, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to get invoice: %w", err)
	}

	activeSum, err := s.paymentRepo.SumActiveByInvoice(ctx, invoiceID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum payments: %w", err)
	}

	return domain.Round2(invoice.TotalAmount - activeSum), nil
}
