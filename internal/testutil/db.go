package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/payhub-app/payhub-api/internal/auth"
	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// schema mirrors migrations/00001_initial_schema.sql in SQLite dialect.
// Array columns are stored as text; pq.StringArray round-trips them.
var schema = []string{
	`CREATE TABLE users (
		id text PRIMARY KEY,
		email text NOT NULL UNIQUE,
		name text NOT NULL,
		roles text NOT NULL,
		is_active boolean NOT NULL DEFAULT true,
		last_login_at datetime,
		created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE statuses (
		id text PRIMARY KEY,
		entity_type text NOT NULL,
		code text NOT NULL,
		name text NOT NULL,
		color text NOT NULL DEFAULT '#9e9e9e',
		order_index integer NOT NULL DEFAULT 0,
		is_final boolean NOT NULL DEFAULT false,
		is_active boolean NOT NULL DEFAULT true,
		created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (entity_type, code)
	)`,
	`CREATE TABLE contractors (
		id text PRIMARY KEY,
		name text NOT NULL,
		tax_id text NOT NULL UNIQUE,
		kpp text,
		email text,
		phone text,
		address text,
		is_active boolean NOT NULL DEFAULT true,
		created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE projects (
		id text PRIMARY KEY,
		name text NOT NULL,
		code text UNIQUE,
		description text,
		is_active boolean NOT NULL DEFAULT true,
		created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE material_persons (
		id text PRIMARY KEY,
		full_name text NOT NULL,
		position text,
		phone text,
		is_active boolean NOT NULL DEFAULT true,
		created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE invoices (
		id text PRIMARY KEY,
		number text NOT NULL UNIQUE,
		invoice_date date NOT NULL,
		supplier_id text NOT NULL REFERENCES contractors (id),
		payer_id text NOT NULL REFERENCES contractors (id),
		project_id text REFERENCES projects (id),
		material_person_id text REFERENCES material_persons (id),
		type text NOT NULL,
		status text NOT NULL DEFAULT 'draft',
		net_amount decimal NOT NULL,
		vat_rate decimal NOT NULL DEFAULT 0,
		vat_amount decimal NOT NULL DEFAULT 0,
		total_amount decimal NOT NULL,
		description text,
		created_by_id text NOT NULL REFERENCES users (id),
		created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE payments (
		id text PRIMARY KEY,
		invoice_id text NOT NULL REFERENCES invoices (id) ON DELETE CASCADE,
		internal_number text NOT NULL UNIQUE,
		payment_date date NOT NULL,
		type text NOT NULL DEFAULT 'debt',
		net_amount decimal NOT NULL,
		vat_rate decimal NOT NULL DEFAULT 0,
		vat_amount decimal NOT NULL DEFAULT 0,
		total_amount decimal NOT NULL,
		status text NOT NULL DEFAULT 'draft',
		payer_id text REFERENCES contractors (id),
		created_by_id text NOT NULL REFERENCES users (id),
		approved_by_id text REFERENCES users (id),
		approved_at datetime,
		comment text,
		external_id text,
		last_sync_at datetime,
		created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE workflows (
		id text PRIMARY KEY,
		name text NOT NULL,
		description text,
		is_active boolean NOT NULL DEFAULT true,
		invoice_types text,
		created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE workflow_stages (
		id text PRIMARY KEY,
		workflow_id text NOT NULL REFERENCES workflows (id) ON DELETE CASCADE,
		position integer NOT NULL,
		name text NOT NULL,
		stage_type text NOT NULL DEFAULT 'approval',
		roles text NOT NULL,
		created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (workflow_id, position)
	)`,
	`CREATE TABLE workflow_instances (
		id text PRIMARY KEY,
		workflow_id text NOT NULL REFERENCES workflows (id),
		entity_type text NOT NULL,
		entity_id text NOT NULL,
		current_stage_position integer NOT NULL DEFAULT 1,
		stages_completed integer NOT NULL DEFAULT 0,
		status text NOT NULL DEFAULT 'in_approval',
		started_by_id text NOT NULL REFERENCES users (id),
		completed_at datetime,
		created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE approval_actions (
		id text PRIMARY KEY,
		instance_id text REFERENCES workflow_instances (id),
		entity_type text NOT NULL,
		entity_id text NOT NULL,
		stage_position integer,
		action text NOT NULL,
		comment text,
		actor_id text NOT NULL,
		actor_name text,
		created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE attachments (
		id text PRIMARY KEY,
		entity_type text NOT NULL,
		entity_id text NOT NULL,
		filename text NOT NULL,
		content_type text NOT NULL,
		size integer NOT NULL,
		bucket text NOT NULL DEFAULT 'attachments',
		storage_path text NOT NULL UNIQUE,
		uploaded_by text,
		created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// SetupTestDB creates an isolated in-memory SQLite database with the
// application schema applied.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "Failed to open test database")

	// Keep the shared in-memory database alive for the test lifetime
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error, "Failed to apply test schema")
	}

	return db
}

// CreateTestUser inserts a user and returns it
func CreateTestUser(t *testing.T, db *gorm.DB, roles ...domain.UserRoleType) *domain.User {
	t.Helper()

	if len(roles) == 0 {
		roles = []domain.UserRoleType{domain.RoleAccountant}
	}
	roleStrings := make(pq.StringArray, len(roles))
	for i, r := range roles {
		roleStrings[i] = string(r)
	}

	user := &domain.User{
		ID:          uuid.New(),
		Email:       fmt.Sprintf("user-%s@test.local", uuid.NewString()[:8]),
		DisplayName: "Тестовый пользователь",
		Roles:       roleStrings,
		IsActive:    true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// ContextWithUser returns a context carrying the user's auth identity
func ContextWithUser(user *domain.User) context.Context {
	roles := make([]domain.UserRoleType, len(user.Roles))
	for i, r := range user.Roles {
		roles[i] = domain.UserRoleType(r)
	}
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Roles:       roles,
	})
}

// CreateTestContractor inserts a contractor with a unique tax id
func CreateTestContractor(t *testing.T, db *gorm.DB, name string) *domain.Contractor {
	t.Helper()

	contractor := &domain.Contractor{
		Name:     name,
		TaxID:    fmt.Sprintf("%010d", time.Now().UnixNano()%10000000000),
		IsActive: true,
	}
	require.NoError(t, db.Create(contractor).Error)
	return contractor
}

// CreateTestProject inserts a project with a unique code
func CreateTestProject(t *testing.T, db *gorm.DB, name string) *domain.Project {
	t.Helper()

	project := &domain.Project{
		Name:     name,
		Code:     fmt.Sprintf("PRJ-%s", uuid.NewString()[:8]),
		IsActive: true,
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

// CreateTestInvoice inserts an invoice in the given status. Amounts are
// net 1000.00 with 20% VAT unless mutated afterwards.
func CreateTestInvoice(t *testing.T, db *gorm.DB, supplier, payer *domain.Contractor, createdBy *domain.User, status domain.InvoiceStatus) *domain.Invoice {
	t.Helper()

	invoice := &domain.Invoice{
		Number:      fmt.Sprintf("INV-%s", uuid.NewString()[:8]),
		InvoiceDate: time.Now().UTC().Truncate(24 * time.Hour),
		SupplierID:  supplier.ID,
		PayerID:     payer.ID,
		Type:        domain.InvoiceTypeGoods,
		Status:      status,
		NetAmount:   1000.00,
		VATRate:     20,
		VATAmount:   200.00,
		TotalAmount: 1200.00,
		CreatedByID: createdBy.ID,
	}
	require.NoError(t, db.Create(invoice).Error)
	return invoice
}

// CreateTestWorkflow inserts an active workflow with the given stages.
// Stage positions follow the argument order starting at 1.
func CreateTestWorkflow(t *testing.T, db *gorm.DB, entityRoles ...[]domain.UserRoleType) *domain.Workflow {
	t.Helper()

	workflow := &domain.Workflow{
		Name:         fmt.Sprintf("Workflow %s", uuid.NewString()[:8]),
		IsActive:     true,
		InvoiceTypes: pq.StringArray{string(domain.InvoiceTypeGoods)},
	}
	require.NoError(t, db.Create(workflow).Error)

	for i, roles := range entityRoles {
		roleStrings := make(pq.StringArray, len(roles))
		for j, r := range roles {
			roleStrings[j] = string(r)
		}
		stage := &domain.WorkflowStage{
			WorkflowID: workflow.ID,
			Position:   i + 1,
			Name:       fmt.Sprintf("Этап %d", i+1),
			StageType:  domain.StageTypeApproval,
			Roles:      roleStrings,
		}
		require.NoError(t, db.Create(stage).Error)
		workflow.Stages = append(workflow.Stages, *stage)
	}

	return workflow
}
