package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate generates the primary key client-side so inserts work the
// same against databases without gen_random_uuid.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// UserRoleType represents a role a user can have
type UserRoleType string

const (
	RoleAdmin      UserRoleType = "admin"
	RoleAccountant UserRoleType = "accountant"
	RoleApprover   UserRoleType = "approver"
	RoleDirector   UserRoleType = "director"
	RoleViewer     UserRoleType = "viewer"
)

// User represents a user in the system. Identity itself lives in the
// external auth provider; this row mirrors what PayHub needs for
// assignment and display.
type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string         `gorm:"type:varchar(255);not null;unique" json:"email"`
	DisplayName string         `gorm:"type:varchar(200);not null;column:name" json:"displayName"`
	Roles       pq.StringArray `gorm:"type:text[];not null" json:"roles"`
	IsActive    bool           `gorm:"not null;default:true;column:is_active" json:"isActive"`
	LastLoginAt *time.Time     `gorm:"column:last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// HasRole checks if the user holds a specific role
func (u *User) HasRole(role UserRoleType) bool {
	for _, r := range u.Roles {
		if r == string(role) {
			return true
		}
	}
	return false
}

// StatusEntityType is the entity family a status row applies to
type StatusEntityType string

const (
	StatusEntityInvoice StatusEntityType = "invoice"
	StatusEntityPayment StatusEntityType = "payment"
	StatusEntityProject StatusEntityType = "project"
)

// IsValid checks if the StatusEntityType is a valid enum value
func (s StatusEntityType) IsValid() bool {
	switch s {
	case StatusEntityInvoice, StatusEntityPayment, StatusEntityProject:
		return true
	}
	return false
}

// Status is a table-driven status definition. UI labels and colors come
// from these rows instead of hardcoded enums; the service layer still
// enforces transitions on the code values.
type Status struct {
	BaseModel
	EntityType StatusEntityType `gorm:"type:varchar(50);not null;uniqueIndex:idx_statuses_entity_code;column:entity_type" json:"entityType"`
	Code       string           `gorm:"type:varchar(50);not null;uniqueIndex:idx_statuses_entity_code" json:"code"`
	Name       string           `gorm:"type:varchar(200);not null" json:"name"`
	Color      string           `gorm:"type:varchar(20);not null;default:'#9e9e9e'" json:"color"`
	OrderIndex int              `gorm:"not null;default:0;column:order_index" json:"orderIndex"`
	IsFinal    bool             `gorm:"not null;default:false;column:is_final" json:"isFinal"`
	IsActive   bool             `gorm:"not null;default:true;column:is_active" json:"isActive"`
}

// Contractor represents a supplier or payer organization
type Contractor struct {
	BaseModel
	Name     string `gorm:"type:varchar(200);not null;index"`
	TaxID    string `gorm:"type:varchar(20);not null;unique;column:tax_id"`
	KPP      string `gorm:"type:varchar(20);column:kpp"`
	Email    string `gorm:"type:varchar(255)"`
	Phone    string `gorm:"type:varchar(50)"`
	Address  string `gorm:"type:varchar(500)"`
	IsActive bool   `gorm:"not null;default:true;column:is_active"`
}

// Project is a cost-allocation reference entity
type Project struct {
	BaseModel
	Name        string `gorm:"type:varchar(200);not null;index"`
	Code        string `gorm:"type:varchar(50);unique"`
	Description string `gorm:"type:text"`
	IsActive    bool   `gorm:"not null;default:true;column:is_active"`
}

// MaterialPerson is the materially responsible person (МОЛ) accountable
// for goods or assets tied to an invoice.
type MaterialPerson struct {
	BaseModel
	FullName string `gorm:"type:varchar(200);not null;column:full_name"`
	Position string `gorm:"type:varchar(200)"`
	Phone    string `gorm:"type:varchar(50)"`
	IsActive bool   `gorm:"not null;default:true;column:is_active"`
}

// TableName overrides the default table name
func (MaterialPerson) TableName() string {
	return "material_persons"
}

// InvoiceType classifies a purchase invoice; workflows declare which
// types they apply to.
type InvoiceType string

const (
	InvoiceTypeGoods    InvoiceType = "goods"
	InvoiceTypeServices InvoiceType = "services"
	InvoiceTypeWorks    InvoiceType = "works"
	InvoiceTypeAdvance  InvoiceType = "advance"
)

// IsValid checks if the InvoiceType is a valid enum value
func (t InvoiceType) IsValid() bool {
	switch t {
	case InvoiceTypeGoods, InvoiceTypeServices, InvoiceTypeWorks, InvoiceTypeAdvance:
		return true
	}
	return false
}

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusApproved  InvoiceStatus = "approved"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusRejected  InvoiceStatus = "rejected"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the InvoiceStatus is a valid enum value
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPending, InvoiceStatusApproved,
		InvoiceStatusPaid, InvoiceStatusRejected, InvoiceStatusCancelled:
		return true
	}
	return false
}

// AcceptsPayments reports whether payments may be created against an
// invoice in this status.
func (s InvoiceStatus) AcceptsPayments() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusApproved, InvoiceStatusPaid:
		return true
	}
	return false
}

// Invoice represents a purchase invoice
type Invoice struct {
	BaseModel
	Number           string          `gorm:"type:varchar(100);not null;unique"`
	InvoiceDate      time.Time       `gorm:"type:date;not null;column:invoice_date"`
	SupplierID       uuid.UUID       `gorm:"type:uuid;not null;index;column:supplier_id"`
	Supplier         *Contractor     `gorm:"foreignKey:SupplierID"`
	PayerID          uuid.UUID       `gorm:"type:uuid;not null;index;column:payer_id"`
	Payer            *Contractor     `gorm:"foreignKey:PayerID"`
	ProjectID        *uuid.UUID      `gorm:"type:uuid;index;column:project_id"`
	Project          *Project        `gorm:"foreignKey:ProjectID"`
	MaterialPersonID *uuid.UUID      `gorm:"type:uuid;column:material_person_id"`
	MaterialPerson   *MaterialPerson `gorm:"foreignKey:MaterialPersonID"`
	Type             InvoiceType     `gorm:"type:varchar(50);not null;index"`
	Status           InvoiceStatus   `gorm:"type:varchar(50);not null;default:'draft';index"`
	NetAmount        float64         `gorm:"type:decimal(15,2);not null;column:net_amount"`
	VATRate          float64         `gorm:"type:decimal(5,2);not null;default:0;column:vat_rate"`
	VATAmount        float64         `gorm:"type:decimal(15,2);not null;default:0;column:vat_amount"`
	TotalAmount      float64         `gorm:"type:decimal(15,2);not null;column:total_amount"`
	Description      string          `gorm:"type:text"`
	CreatedByID      uuid.UUID       `gorm:"type:uuid;not null;column:created_by_id"`
	CreatedBy        *User           `gorm:"foreignKey:CreatedByID"`
	Payments         []Payment       `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// PaymentType classifies a payment; the uppercase code is the suffix of
// the generated internal number.
type PaymentType string

const (
	PaymentTypeDebt    PaymentType = "debt"
	PaymentTypeAdvance PaymentType = "advance"
	PaymentTypeTax     PaymentType = "tax"
)

// IsValid checks if the PaymentType is a valid enum value
func (t PaymentType) IsValid() bool {
	switch t {
	case PaymentTypeDebt, PaymentTypeAdvance, PaymentTypeTax:
		return true
	}
	return false
}

// Suffix returns the internal-number suffix, e.g. "DEBT"
func (t PaymentType) Suffix() string {
	return strings.ToUpper(string(t))
}

// PaymentStatus represents the lifecycle status of a payment
type PaymentStatus string

const (
	PaymentStatusDraft     PaymentStatus = "draft"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// IsValid checks if the PaymentStatus is a valid enum value
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusDraft, PaymentStatusPending, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

// Payment represents a payment against an invoice.
// InternalNumber format: {invoiceNumber}/PAY-{NN}-{TYPE}
type Payment struct {
	BaseModel
	InvoiceID      uuid.UUID     `gorm:"type:uuid;not null;index;column:invoice_id"`
	Invoice        *Invoice      `gorm:"foreignKey:InvoiceID"`
	InternalNumber string        `gorm:"type:varchar(150);not null;unique;column:internal_number"`
	PaymentDate    time.Time     `gorm:"type:date;not null;column:payment_date"`
	Type           PaymentType   `gorm:"type:varchar(50);not null;default:'debt'"`
	NetAmount      float64       `gorm:"type:decimal(15,2);not null;column:net_amount"`
	VATRate        float64       `gorm:"type:decimal(5,2);not null;default:0;column:vat_rate"`
	VATAmount      float64       `gorm:"type:decimal(15,2);not null;default:0;column:vat_amount"`
	TotalAmount    float64       `gorm:"type:decimal(15,2);not null;column:total_amount"`
	Status         PaymentStatus `gorm:"type:varchar(50);not null;default:'draft';index"`
	PayerID        *uuid.UUID    `gorm:"type:uuid;column:payer_id"`
	Payer          *Contractor   `gorm:"foreignKey:PayerID"`
	CreatedByID    uuid.UUID     `gorm:"type:uuid;not null;column:created_by_id"`
	CreatedBy      *User         `gorm:"foreignKey:CreatedByID"`
	ApprovedByID   *uuid.UUID    `gorm:"type:uuid;column:approved_by_id"`
	ApprovedBy     *User         `gorm:"foreignKey:ApprovedByID"`
	ApprovedAt     *time.Time    `gorm:"column:approved_at"`
	Comment        string        `gorm:"type:text"`
	// ExternalID holds the transaction id reported by the accounting
	// system; used to de-duplicate reconciliation runs.
	ExternalID *string    `gorm:"type:varchar(100);column:external_id"`
	LastSyncAt *time.Time `gorm:"column:last_sync_at"`
}

// StageType distinguishes intermediate approval stages from the final one
type StageType string

const (
	StageTypeApproval StageType = "approval"
	StageTypeFinal    StageType = "final"
)

// IsValid checks if the StageType is a valid enum value
func (t StageType) IsValid() bool {
	switch t {
	case StageTypeApproval, StageTypeFinal:
		return true
	}
	return false
}

// Workflow is a named, ordered sequence of approval stages applicable to
// invoices of certain types.
type Workflow struct {
	BaseModel
	Name         string          `gorm:"type:varchar(200);not null"`
	Description  string          `gorm:"type:text"`
	IsActive     bool            `gorm:"not null;default:true;column:is_active"`
	InvoiceTypes pq.StringArray  `gorm:"type:text[];column:invoice_types"`
	Stages       []WorkflowStage `gorm:"foreignKey:WorkflowID;constraint:OnDelete:CASCADE"`
}

// WorkflowStage is one step of a workflow. Position is 1-based and unique
// within the workflow; it is rewritten for all siblings on reorder.
type WorkflowStage struct {
	BaseModel
	WorkflowID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_stages_workflow_position;column:workflow_id"`
	Position   int            `gorm:"not null;uniqueIndex:idx_stages_workflow_position"`
	Name       string         `gorm:"type:varchar(200);not null"`
	StageType  StageType      `gorm:"type:varchar(50);not null;default:'approval';column:stage_type"`
	Roles      pq.StringArray `gorm:"type:text[];not null"`
}

// AllowsRole reports whether any of the given roles may act on this stage
func (s *WorkflowStage) AllowsRole(roles []string) bool {
	for _, stageRole := range s.Roles {
		for _, r := range roles {
			if stageRole == r {
				return true
			}
		}
	}
	return false
}

// WorkflowEntityType is the entity family a workflow instance is bound to
type WorkflowEntityType string

const (
	WorkflowEntityInvoice WorkflowEntityType = "invoice"
	WorkflowEntityPayment WorkflowEntityType = "payment"
)

// IsValid checks if the WorkflowEntityType is a valid enum value
func (e WorkflowEntityType) IsValid() bool {
	return e == WorkflowEntityInvoice || e == WorkflowEntityPayment
}

// InstanceStatus represents the runtime state of a workflow instance
type InstanceStatus string

const (
	InstanceStatusNotStarted InstanceStatus = "not_started"
	InstanceStatusInApproval InstanceStatus = "in_approval"
	InstanceStatusApproved   InstanceStatus = "approved"
	InstanceStatusRejected   InstanceStatus = "rejected"
	InstanceStatusCancelled  InstanceStatus = "cancelled"
)

// IsTerminal reports whether the instance can no longer change
func (s InstanceStatus) IsTerminal() bool {
	return s == InstanceStatusApproved || s == InstanceStatusRejected || s == InstanceStatusCancelled
}

// WorkflowInstance binds a workflow definition to one specific entity and
// tracks approval progress through the ordered stages.
type WorkflowInstance struct {
	BaseModel
	WorkflowID           uuid.UUID          `gorm:"type:uuid;not null;index;column:workflow_id"`
	Workflow             *Workflow          `gorm:"foreignKey:WorkflowID"`
	EntityType           WorkflowEntityType `gorm:"type:varchar(50);not null;index;column:entity_type"`
	EntityID             uuid.UUID          `gorm:"type:uuid;not null;index;column:entity_id"`
	CurrentStagePosition int                `gorm:"not null;default:1;column:current_stage_position"`
	StagesCompleted      int                `gorm:"not null;default:0;column:stages_completed"`
	Status               InstanceStatus     `gorm:"type:varchar(50);not null;default:'in_approval';index"`
	StartedByID          uuid.UUID          `gorm:"type:uuid;not null;column:started_by_id"`
	StartedBy            *User              `gorm:"foreignKey:StartedByID"`
	CompletedAt          *time.Time         `gorm:"column:completed_at"`
}

// ApprovalActionType is the user-facing command recorded in the history
type ApprovalActionType string

const (
	ActionSubmit  ApprovalActionType = "submit"
	ActionApprove ApprovalActionType = "approve"
	ActionReject  ApprovalActionType = "reject"
	ActionCancel  ApprovalActionType = "cancel"
	ActionConfirm ApprovalActionType = "confirm"
)

// ApprovalAction is one immutable history record of a workflow or
// payment lifecycle command.
type ApprovalAction struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	InstanceID    *uuid.UUID         `gorm:"type:uuid;index;column:instance_id"`
	EntityType    WorkflowEntityType `gorm:"type:varchar(50);not null;index;column:entity_type"`
	EntityID      uuid.UUID          `gorm:"type:uuid;not null;index;column:entity_id"`
	StagePosition *int               `gorm:"column:stage_position"`
	Action        ApprovalActionType `gorm:"type:varchar(50);not null"`
	Comment       string             `gorm:"type:text"`
	ActorID       uuid.UUID          `gorm:"type:uuid;not null;column:actor_id"`
	ActorName     string             `gorm:"type:varchar(200);column:actor_name"`
	CreatedAt     time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate generates the primary key client-side, mirroring BaseModel.
func (a *ApprovalAction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Attachment buckets and folders observed in storage
const (
	BucketAttachments = "attachments"
	BucketDocuments   = "documents"

	FolderInvoices = "invoices"
	FolderPayments = "payments"
)

// Attachment represents an uploaded document bound to an invoice or payment
type Attachment struct {
	BaseModel
	EntityType  WorkflowEntityType `gorm:"type:varchar(50);not null;index;column:entity_type"`
	EntityID    uuid.UUID          `gorm:"type:uuid;not null;index;column:entity_id"`
	Filename    string             `gorm:"type:varchar(255);not null"`
	ContentType string             `gorm:"type:varchar(100);not null;column:content_type"`
	Size        int64              `gorm:"not null"`
	Bucket      string             `gorm:"type:varchar(50);not null;default:'attachments'"`
	StoragePath string             `gorm:"type:varchar(500);not null;unique;column:storage_path"`
	UploadedBy  uuid.UUID          `gorm:"type:uuid;column:uploaded_by"`
}
