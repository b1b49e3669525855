package domain

import (
	"testing"

	"github.com/lib/pq"
)

func TestInvoiceStatusAcceptsPayments(t *testing.T) {
	tests := []struct {
		status   InvoiceStatus
		expected bool
	}{
		{InvoiceStatusDraft, true},
		{InvoiceStatusApproved, true},
		{InvoiceStatusPaid, true},
		{InvoiceStatusPending, false},
		{InvoiceStatusRejected, false},
		{InvoiceStatusCancelled, false},
	}

	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			if got := tc.status.AcceptsPayments(); got != tc.expected {
				t.Errorf("%s.AcceptsPayments() = %v, want %v", tc.status, got, tc.expected)
			}
		})
	}
}

func TestPaymentStatusIsTerminal(t *testing.T) {
	terminal := []PaymentStatus{PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = false, want true", s)
		}
	}

	open := []PaymentStatus{PaymentStatusDraft, PaymentStatusPending}
	for _, s := range open {
		if s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = true, want false", s)
		}
	}
}

func TestPaymentTypeSuffix(t *testing.T) {
	tests := []struct {
		paymentType PaymentType
		expected    string
	}{
		{PaymentTypeDebt, "DEBT"},
		{PaymentTypeAdvance, "ADVANCE"},
		{PaymentTypeTax, "TAX"},
	}

	for _, tc := range tests {
		if got := tc.paymentType.Suffix(); got != tc.expected {
			t.Errorf("%s.Suffix() = %q, want %q", tc.paymentType, got, tc.expected)
		}
	}
}

func TestWorkflowStageAllowsRole(t *testing.T) {
	stage := &WorkflowStage{Roles: pq.StringArray{"approver", "director"}}

	if !stage.AllowsRole([]string{"viewer", "approver"}) {
		t.Error("expected approver to be allowed")
	}
	if stage.AllowsRole([]string{"viewer", "accountant"}) {
		t.Error("expected accountant to be denied")
	}
	if stage.AllowsRole(nil) {
		t.Error("expected empty role set to be denied")
	}
}

func TestUserHasRole(t *testing.T) {
	user := &User{Roles: pq.StringArray{"admin", "accountant"}}

	if !user.HasRole(RoleAdmin) {
		t.Error("expected HasRole(admin) = true")
	}
	if user.HasRole(RoleDirector) {
		t.Error("expected HasRole(director) = false")
	}
}

func TestWorkflowEntityTypeIsValid(t *testing.T) {
	if !WorkflowEntityInvoice.IsValid() || !WorkflowEntityPayment.IsValid() {
		t.Error("expected invoice and payment entity types to be valid")
	}
	if WorkflowEntityType("contract").IsValid() {
		t.Error("expected unknown entity type to be invalid")
	}
}
