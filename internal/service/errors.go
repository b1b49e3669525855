package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")
)

// Business rule errors. Messages are surfaced to the UI verbatim, hence
// the Russian texts.
var (
	// ErrPaymentAlreadyConfirmed is returned when confirming a payment twice
	ErrPaymentAlreadyConfirmed = errors.New("Платеж уже подтвержден")

	// ErrPaymentNotPending is returned when confirm/reject is attempted on a
	// payment that is not awaiting approval
	ErrPaymentNotPending = errors.New("Платеж не находится на согласовании")

	// ErrPaymentTerminal is returned when acting on a completed, failed or
	// cancelled payment
	ErrPaymentTerminal = errors.New("Платеж находится в конечном статусе")

	// ErrPaymentNotDeletable is returned when deleting a payment outside
	// draft or cancelled status
	ErrPaymentNotDeletable = errors.New("Удалить можно только черновик или отмененный платеж")

	// ErrBalanceExceeded is returned when a payment would overpay its invoice
	ErrBalanceExceeded = errors.New("Сумма платежа превышает остаток по счету")

	// ErrInvoiceNotPayable is returned when the invoice status does not
	// accept new payments
	ErrInvoiceNotPayable = errors.New("По счету в текущем статусе нельзя создавать платежи")

	// ErrRejectCommentRequired is returned when a reject carries no comment
	ErrRejectCommentRequired = errors.New("Укажите причину отклонения")

	// ErrNotPaymentCreator is returned when someone other than the creator
	// cancels a payment
	ErrNotPaymentCreator = errors.New("Отменить платеж может только его автор")

	// ErrWorkflowInactive is returned when starting an instance of a
	// deactivated workflow
	ErrWorkflowInactive = errors.New("Маршрут согласования неактивен")

	// ErrWorkflowNoStages is returned when a workflow is created or started
	// without stages
	ErrWorkflowNoStages = errors.New("Маршрут согласования должен содержать хотя бы один этап")

	// ErrWorkflowInUse is returned when deleting a workflow that has
	// non-terminal instances
	ErrWorkflowInUse = errors.New("Маршрут используется в активных согласованиях")

	// ErrInstanceAlreadyActive is returned when starting a second active
	// instance for the same entity
	ErrInstanceAlreadyActive = errors.New("По объекту уже запущено согласование")

	// ErrInstanceTerminal is returned when acting on a finished instance
	ErrInstanceTerminal = errors.New("Согласование уже завершено")

	// ErrStageRoleMismatch is returned when the actor's roles are not
	// allowed on the current stage
	ErrStageRoleMismatch = errors.New("Недостаточно прав для согласования на текущем этапе")

	// ErrConfirmRequired is returned when approve is attempted on the final
	// stage of a payment route; the final stage is completed by confirming
	// the payment
	ErrConfirmRequired = errors.New("Завершающий этап требует подтверждения оплаты")

	// ErrInvoiceHasPayments is returned when deleting an invoice with
	// payments attached
	ErrInvoiceHasPayments = errors.New("Нельзя удалить счет с платежами")

	// ErrInvoiceNotDraft is returned when editing an invoice past draft
	ErrInvoiceNotDraft = errors.New("Редактировать можно только черновик счета")

	// ErrStatusInUse is returned when deactivating a status still referenced
	// by live records
	ErrStatusInUse = errors.New("Статус используется и не может быть удален")
)
