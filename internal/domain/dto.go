package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaginatedResponse wraps a page of results
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"totalPages"`
}

// ============================================================================
// Lookup requests
// ============================================================================

// CreateContractorRequest is the payload for creating a contractor
type CreateContractorRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	TaxID   string `json:"taxId" validate:"required,max=20"`
	KPP     string `json:"kpp" validate:"max=20"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"max=50"`
	Address string `json:"address" validate:"max=500"`
}

// UpdateContractorRequest is the payload for updating a contractor
type UpdateContractorRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=200"`
	KPP      *string `json:"kpp" validate:"omitempty,max=20"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
	Address  *string `json:"address" validate:"omitempty,max=500"`
	IsActive *bool   `json:"isActive"`
}

// CreateProjectRequest is the payload for creating a project
type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Code        string `json:"code" validate:"max=50"`
	Description string `json:"description"`
}

// UpdateProjectRequest is the payload for updating a project
type UpdateProjectRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Code        *string `json:"code" validate:"omitempty,max=50"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

// CreateMaterialPersonRequest is the payload for creating a МОЛ record
type CreateMaterialPersonRequest struct {
	FullName string `json:"fullName" validate:"required,max=200"`
	Position string `json:"position" validate:"max=200"`
	Phone    string `json:"phone" validate:"max=50"`
}

// UpdateMaterialPersonRequest is the payload for updating a МОЛ record
type UpdateMaterialPersonRequest struct {
	FullName *string `json:"fullName" validate:"omitempty,max=200"`
	Position *string `json:"position" validate:"omitempty,max=200"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
	IsActive *bool   `json:"isActive"`
}

// CreateStatusRequest is the payload for creating a status definition
type CreateStatusRequest struct {
	EntityType string `json:"entityType" validate:"required,oneof=invoice payment project"`
	Code       string `json:"code" validate:"required,max=50"`
	Name       string `json:"name" validate:"required,max=200"`
	Color      string `json:"color" validate:"max=20"`
	OrderIndex int    `json:"orderIndex" validate:"gte=0"`
	IsFinal    bool   `json:"isFinal"`
}

// UpdateStatusRequest is the payload for updating a status definition
type UpdateStatusRequest struct {
	Name       *string `json:"name" validate:"omitempty,max=200"`
	Color      *string `json:"color" validate:"omitempty,max=20"`
	OrderIndex *int    `json:"orderIndex" validate:"omitempty,gte=0"`
	IsFinal    *bool   `json:"isFinal"`
	IsActive   *bool   `json:"isActive"`
}

// ============================================================================
// Invoice requests
// ============================================================================

// CreateInvoiceRequest is the payload for creating an invoice
type CreateInvoiceRequest struct {
	Number           string     `json:"number" validate:"required,max=100"`
	InvoiceDate      time.Time  `json:"invoiceDate" validate:"required"`
	SupplierID       uuid.UUID  `json:"supplierId" validate:"required"`
	PayerID          uuid.UUID  `json:"payerId" validate:"required"`
	ProjectID        *uuid.UUID `json:"projectId"`
	MaterialPersonID *uuid.UUID `json:"materialPersonId"`
	Type             string     `json:"type" validate:"required,oneof=goods services works advance"`
	NetAmount        float64    `json:"netAmount" validate:"gt=0"`
	VATRate          float64    `json:"vatRate" validate:"gte=0,lte=100"`
	Description      string     `json:"description"`
}

// UpdateInvoiceRequest is the payload for updating a draft invoice
type UpdateInvoiceRequest struct {
	Number           *string    `json:"number" validate:"omitempty,max=100"`
	InvoiceDate      *time.Time `json:"invoiceDate"`
	SupplierID       *uuid.UUID `json:"supplierId"`
	PayerID          *uuid.UUID `json:"payerId"`
	ProjectID        *uuid.UUID `json:"projectId"`
	MaterialPersonID *uuid.UUID `json:"materialPersonId"`
	Type             *string    `json:"type" validate:"omitempty,oneof=goods services works advance"`
	NetAmount        *float64   `json:"netAmount" validate:"omitempty,gt=0"`
	VATRate          *float64   `json:"vatRate" validate:"omitempty,gte=0,lte=100"`
	Description      *string    `json:"description"`
}

// ============================================================================
// Payment requests
// ============================================================================

// CreatePaymentRequest is the payload for creating a payment
type CreatePaymentRequest struct {
	InvoiceID      uuid.UUID  `json:"invoiceId" validate:"required"`
	InternalNumber string     `json:"internalNumber" validate:"max=150"`
	PaymentDate    time.Time  `json:"paymentDate" validate:"required"`
	Type           string     `json:"type" validate:"required,oneof=debt advance tax"`
	NetAmount      float64    `json:"netAmount" validate:"gt=0"`
	VATRate        float64    `json:"vatRate" validate:"gte=0,lte=100"`
	PayerID        *uuid.UUID `json:"payerId"`
	Comment        string     `json:"comment"`
}

// ============================================================================
// Workflow requests
// ============================================================================

// StageRequest defines one stage when creating or replacing workflow stages
type StageRequest struct {
	Name      string   `json:"name" validate:"required,max=200"`
	StageType string   `json:"stageType" validate:"required,oneof=approval final"`
	Roles     []string `json:"roles" validate:"required,min=1"`
}

// CreateWorkflowRequest is the payload for creating a workflow definition
type CreateWorkflowRequest struct {
	Name         string         `json:"name" validate:"required,max=200"`
	Description  string         `json:"description"`
	InvoiceTypes []string       `json:"invoiceTypes" validate:"dive,oneof=goods services works advance"`
	Stages       []StageRequest `json:"stages" validate:"required,min=1,dive"`
}

// UpdateWorkflowRequest patches workflow-level fields
type UpdateWorkflowRequest struct {
	Name         *string  `json:"name" validate:"omitempty,max=200"`
	Description  *string  `json:"description"`
	InvoiceTypes []string `json:"invoiceTypes" validate:"omitempty,dive,oneof=goods services works advance"`
	IsActive     *bool    `json:"isActive"`
}

// ReorderStagesRequest rewrites stage positions from the given order
type ReorderStagesRequest struct {
	StageIDs []uuid.UUID `json:"stageIds" validate:"required,min=1"`
}

// StartWorkflowRequest binds a workflow to an entity
type StartWorkflowRequest struct {
	WorkflowID uuid.UUID `json:"workflowId" validate:"required"`
}

// ============================================================================
// Approval action requests
// ============================================================================

// ActionRequest carries an optional comment for submit/approve/cancel
type ActionRequest struct {
	Comment string `json:"comment"`
}

// RejectRequest carries the mandatory rejection comment
type RejectRequest struct {
	Comment string `json:"comment" validate:"required"`
}

// ============================================================================
// DTOs
// ============================================================================

// ContractorDTO is the API representation of a contractor
type ContractorDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"taxId"`
	KPP       string    `json:"kpp,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToContractorDTO maps a contractor to its DTO
func ToContractorDTO(c *Contractor) ContractorDTO {
	return ContractorDTO{
		ID:        c.ID,
		Name:      c.Name,
		TaxID:     c.TaxID,
		KPP:       c.KPP,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// InvoiceDTO is the API representation of an invoice
type InvoiceDTO struct {
	ID               uuid.UUID  `json:"id"`
	Number           string     `json:"number"`
	InvoiceDate      time.Time  `json:"invoiceDate"`
	SupplierID       uuid.UUID  `json:"supplierId"`
	SupplierName     string     `json:"supplierName,omitempty"`
	PayerID          uuid.UUID  `json:"payerId"`
	PayerName        string     `json:"payerName,omitempty"`
	ProjectID        *uuid.UUID `json:"projectId,omitempty"`
	ProjectName      string     `json:"projectName,omitempty"`
	MaterialPersonID *uuid.UUID `json:"materialPersonId,omitempty"`
	Type             string     `json:"type"`
	Status           string     `json:"status"`
	NetAmount        float64    `json:"netAmount"`
	VATRate          float64    `json:"vatRate"`
	VATAmount        float64    `json:"vatAmount"`
	TotalAmount      float64    `json:"totalAmount"`
	Description      string     `json:"description,omitempty"`
	CreatedByID      uuid.UUID  `json:"createdById"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// ToInvoiceDTO maps an invoice to its DTO
func ToInvoiceDTO(inv *Invoice) InvoiceDTO {
	dto := InvoiceDTO{
		ID:               inv.ID,
		Number:           inv.Number,
		InvoiceDate:      inv.InvoiceDate,
		SupplierID:       inv.SupplierID,
		PayerID:          inv.PayerID,
		ProjectID:        inv.ProjectID,
		MaterialPersonID: inv.MaterialPersonID,
		Type:             string(inv.Type),
		Status:           string(inv.Status),
		NetAmount:        inv.NetAmount,
		VATRate:          inv.VATRate,
		VATAmount:        inv.VATAmount,
		TotalAmount:      inv.TotalAmount,
		Description:      inv.Description,
		CreatedByID:      inv.CreatedByID,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
	}
	if inv.Supplier != nil {
		dto.SupplierName = inv.Supplier.Name
	}
	if inv.Payer != nil {
		dto.PayerName = inv.Payer.Name
	}
	if inv.Project != nil {
		dto.ProjectName = inv.Project.Name
	}
	return dto
}

// PaymentDTO is the API representation of a payment
type PaymentDTO struct {
	ID             uuid.UUID  `json:"id"`
	InvoiceID      uuid.UUID  `json:"invoiceId"`
	InvoiceNumber  string     `json:"invoiceNumber,omitempty"`
	InternalNumber string     `json:"internalNumber"`
	PaymentDate    time.Time  `json:"paymentDate"`
	Type           string     `json:"type"`
	NetAmount      float64    `json:"netAmount"`
	VATRate        float64    `json:"vatRate"`
	VATAmount      float64    `json:"vatAmount"`
	TotalAmount    float64    `json:"totalAmount"`
	Status         string     `json:"status"`
	PayerID        *uuid.UUID `json:"payerId,omitempty"`
	CreatedByID    uuid.UUID  `json:"createdById"`
	ApprovedByID   *uuid.UUID `json:"approvedById,omitempty"`
	ApprovedAt     *time.Time `json:"approvedAt,omitempty"`
	Comment        string     `json:"comment,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ToPaymentDTO maps a payment to its DTO
func ToPaymentDTO(p *Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:             p.ID,
		InvoiceID:      p.InvoiceID,
		InternalNumber: p.InternalNumber,
		PaymentDate:    p.PaymentDate,
		Type:           string(p.Type),
		NetAmount:      p.NetAmount,
		VATRate:        p.VATRate,
		VATAmount:      p.VATAmount,
		TotalAmount:    p.TotalAmount,
		Status:         string(p.Status),
		PayerID:        p.PayerID,
		CreatedByID:    p.CreatedByID,
		ApprovedByID:   p.ApprovedByID,
		ApprovedAt:     p.ApprovedAt,
		Comment:        p.Comment,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.Invoice != nil {
		dto.InvoiceNumber = p.Invoice.Number
	}
	return dto
}

// StageDTO is the API representation of a workflow stage
type StageDTO struct {
	ID        uuid.UUID `json:"id"`
	Position  int       `json:"position"`
	Name      string    `json:"name"`
	StageType string    `json:"stageType"`
	Roles     []string  `json:"roles"`
}

// WorkflowDTO is the API representation of a workflow definition
type WorkflowDTO struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	IsActive     bool       `json:"isActive"`
	InvoiceTypes []string   `json:"invoiceTypes"`
	Stages       []StageDTO `json:"stages"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ToWorkflowDTO maps a workflow with its stages to a DTO
func ToWorkflowDTO(w *Workflow) WorkflowDTO {
	stages := make([]StageDTO, len(w.Stages))
	for i, s := range w.Stages {
		stages[i] = StageDTO{
			ID:        s.ID,
			Position:  s.Position,
			Name:      s.Name,
			StageType: string(s.StageType),
			Roles:     s.Roles,
		}
	}
	return WorkflowDTO{
		ID:           w.ID,
		Name:         w.Name,
		Description:  w.Description,
		IsActive:     w.IsActive,
		InvoiceTypes: w.InvoiceTypes,
		Stages:       stages,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
}

// InstanceDTO is the API representation of a workflow instance
type InstanceDTO struct {
	ID                   uuid.UUID  `json:"id"`
	WorkflowID           uuid.UUID  `json:"workflowId"`
	WorkflowName         string     `json:"workflowName,omitempty"`
	EntityType           string     `json:"entityType"`
	EntityID             uuid.UUID  `json:"entityId"`
	CurrentStagePosition int        `json:"currentStagePosition"`
	StagesCompleted      int        `json:"stagesCompleted"`
	Status               string     `json:"status"`
	StartedByID          uuid.UUID  `json:"startedById"`
	CompletedAt          *time.Time `json:"completedAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// ToInstanceDTO maps a workflow instance to its DTO
func ToInstanceDTO(in *WorkflowInstance) InstanceDTO {
	dto := InstanceDTO{
		ID:                   in.ID,
		WorkflowID:           in.WorkflowID,
		EntityType:           string(in.EntityType),
		EntityID:             in.EntityID,
		CurrentStagePosition: in.CurrentStagePosition,
		StagesCompleted:      in.StagesCompleted,
		Status:               string(in.Status),
		StartedByID:          in.StartedByID,
		CompletedAt:          in.CompletedAt,
		CreatedAt:            in.CreatedAt,
		UpdatedAt:            in.UpdatedAt,
	}
	if in.Workflow != nil {
		dto.WorkflowName = in.Workflow.Name
	}
	return dto
}

// ApprovalActionDTO is the API representation of one history record
type ApprovalActionDTO struct {
	ID            uuid.UUID  `json:"id"`
	InstanceID    *uuid.UUID `json:"instanceId,omitempty"`
	EntityType    string     `json:"entityType"`
	EntityID      uuid.UUID  `json:"entityId"`
	StagePosition *int       `json:"stagePosition,omitempty"`
	Action        string     `json:"action"`
	Comment       string     `json:"comment,omitempty"`
	ActorID       uuid.UUID  `json:"actorId"`
	ActorName     string     `json:"actorName,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ToApprovalActionDTO maps a history record to its DTO
func ToApprovalActionDTO(a *ApprovalAction) ApprovalActionDTO {
	return ApprovalActionDTO{
		ID:            a.ID,
		InstanceID:    a.InstanceID,
		EntityType:    string(a.EntityType),
		EntityID:      a.EntityID,
		StagePosition: a.StagePosition,
		Action:        string(a.Action),
		Comment:       a.Comment,
		ActorID:       a.ActorID,
		ActorName:     a.ActorName,
		CreatedAt:     a.CreatedAt,
	}
}

// AttachmentDTO is the API representation of an uploaded file
type AttachmentDTO struct {
	ID          uuid.UUID `json:"id"`
	EntityType  string    `json:"entityType"`
	EntityID    uuid.UUID `json:"entityId"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Bucket      string    `json:"bucket"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ToAttachmentDTO maps an attachment to its DTO
func ToAttachmentDTO(a *Attachment) AttachmentDTO {
	return AttachmentDTO{
		ID:          a.ID,
		EntityType:  string(a.EntityType),
		EntityID:    a.EntityID,
		Filename:    a.Filename,
		ContentType: a.ContentType,
		Size:        a.Size,
		Bucket:      a.Bucket,
		CreatedAt:   a.CreatedAt,
	}
}
