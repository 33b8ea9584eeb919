package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/fluxapay/backend/internal/events"
	"github.com/fluxapay/backend/internal/models"
	"github.com/fluxapay/backend/internal/rbac"
	"go.uber.org/zap"
)

func newTestRefundService() (*RefundService, *fakeRefundStore, *fakeRoles, *recordingPublisher) {
	store := newFakeRefundStore()
	roles := newFakeRoles()
	pub := &recordingPublisher{}
	svc := NewRefundService(store, roles, &fakeAuditStore{}, pub, zap.NewNop())
	svc.now = fixedClock(baseTime)
	return svc, store, roles, pub
}

func createTestRefund(t *testing.T, svc *RefundService, paymentID string, amount int64) *models.Refund {
	t.Helper()
	r, err := svc.CreateRefund(context.Background(), paymentID, big.NewInt(amount), "customer request", "merchant-1")
	if err != nil {
		t.Fatalf("CreateRefund: %v", err)
	}
	return r
}

func TestCreateRefund(t *testing.T) {
	svc, store, _, pub := newTestRefundService()

	r := createTestRefund(t, svc, "pay-1", 250)

	if r.RefundID != "refund_1" {
		t.Errorf("refund id = %q, want refund_1", r.RefundID)
	}
	if r.Status != models.RefundStatusPending {
		t.Errorf("status = %q, want pending", r.Status)
	}
	if !r.CreatedAt.Equal(baseTime) {
		t.Errorf("created_at = %v, want %v", r.CreatedAt, baseTime)
	}
	if r.ProcessedAt != nil {
		t.Error("new refund must not carry a processed time")
	}

	ids, _ := store.ListIDsByPayment(context.Background(), "pay-1")
	if len(ids) != 1 || ids[0] != "refund_1" {
		t.Errorf("payment index = %v, want [refund_1]", ids)
	}

	if got := pub.types(); len(got) != 1 || got[0] != events.EventRefundCreated {
		t.Errorf("published events = %v, want [refund_created]", got)
	}
}

func TestCreateRefundSequentialIDs(t *testing.T) {
	svc, _, _, _ := newTestRefundService()

	first := createTestRefund(t, svc, "pay-1", 100)
	second := createTestRefund(t, svc, "pay-1", 200)
	third := createTestRefund(t, svc, "pay-2", 300)

	if first.RefundID != "refund_1" || second.RefundID != "refund_2" || third.RefundID != "refund_3" {
		t.Errorf("ids = %q, %q, %q; want refund_1, refund_2, refund_3",
			first.RefundID, second.RefundID, third.RefundID)
	}
}

func TestRefundIDsUniqueBeyondTen(t *testing.T) {
	svc, _, _, _ := newTestRefundService()

	seen := make(map[string]bool)
	for i := 0; i < 25; i++ {
		r := createTestRefund(t, svc, "pay-1", 10)
		if seen[r.RefundID] {
			t.Fatalf("duplicate refund id %q on refund %d", r.RefundID, i+1)
		}
		seen[r.RefundID] = true
	}

	if !seen["refund_11"] || !seen["refund_25"] {
		t.Error("ids past the tenth refund should keep counting in decimal")
	}
}

func TestCreateRefundInvalidAmount(t *testing.T) {
	svc, store, _, _ := newTestRefundService()

	for _, amount := range []*big.Int{nil, big.NewInt(0), big.NewInt(-1)} {
		_, err := svc.CreateRefund(context.Background(), "pay-1", amount, "reason", "merchant-1")
		if !errors.Is(err, ErrInvalidRefundAmount) {
			t.Errorf("CreateRefund(amount=%v) = %v, want ErrInvalidRefundAmount", amount, err)
		}
	}

	if store.counter != 0 {
		t.Error("rejected create must not consume counter values")
	}
}

func TestCreateRefundWithoutPaymentRecord(t *testing.T) {
	svc, _, _, _ := newTestRefundService()

	// Refunds reference payments by id only; no charge needs to exist.
	r, err := svc.CreateRefund(context.Background(), "never-created", big.NewInt(50), "goodwill", "merchant-1")
	if err != nil {
		t.Fatalf("CreateRefund without payment record: %v", err)
	}
	if r.PaymentID != "never-created" {
		t.Errorf("payment_id = %q, want never-created", r.PaymentID)
	}
}

func TestProcessRefundAsSettlementOperator(t *testing.T) {
	svc, store, roles, pub := newTestRefundService()
	r := createTestRefund(t, svc, "pay-1", 100)
	roles.grant(rbac.RoleSettlementOperator, "op-1")

	processedAt := baseTime.Add(10 * time.Minute)
	svc.now = fixedClock(processedAt)

	if err := svc.ProcessRefund(context.Background(), "op-1", r.RefundID); err != nil {
		t.Fatalf("ProcessRefund: %v", err)
	}

	stored, _ := store.GetByID(context.Background(), r.RefundID)
	if stored.Status != models.RefundStatusCompleted {
		t.Errorf("status = %q, want completed", stored.Status)
	}
	if stored.ProcessedAt == nil || !stored.ProcessedAt.Equal(processedAt) {
		t.Error("processed_at not set from the clock")
	}

	if got := pub.types(); len(got) != 2 || got[1] != events.EventRefundProcessed {
		t.Errorf("published events = %v, want [... refund_processed]", got)
	}
}

func TestProcessRefundAsOracle(t *testing.T) {
	svc, _, roles, _ := newTestRefundService()
	r := createTestRefund(t, svc, "pay-1", 100)
	roles.grant(rbac.RoleOracle, "oracle-1")

	if err := svc.ProcessRefund(context.Background(), "oracle-1", r.RefundID); err != nil {
		t.Errorf("ProcessRefund by oracle: %v", err)
	}
}

func TestProcessRefundUnauthorized(t *testing.T) {
	svc, store, roles, _ := newTestRefundService()
	r := createTestRefund(t, svc, "pay-1", 100)
	roles.grant(rbac.RoleMerchant, "merchant-1") // wrong role

	err := svc.ProcessRefund(context.Background(), "merchant-1", r.RefundID)
	if !errors.Is(err, ErrRefundUnauthorized) {
		t.Errorf("ProcessRefund without settlement role = %v, want ErrRefundUnauthorized", err)
	}

	stored, _ := store.GetByID(context.Background(), r.RefundID)
	if stored.Status != models.RefundStatusPending {
		t.Errorf("status = %q, want pending after refused processing", stored.Status)
	}
}

func TestProcessRefundAfterRoleRevoked(t *testing.T) {
	svc, _, roles, _ := newTestRefundService()
	r := createTestRefund(t, svc, "pay-1", 100)

	roles.grant(rbac.RoleSettlementOperator, "op-1")
	roles.revoke(rbac.RoleSettlementOperator, "op-1")

	err := svc.ProcessRefund(context.Background(), "op-1", r.RefundID)
	if !errors.Is(err, ErrRefundUnauthorized) {
		t.Errorf("ProcessRefund after revoke = %v, want ErrRefundUnauthorized", err)
	}
}

func TestProcessRefundNotFound(t *testing.T) {
	svc, _, roles, _ := newTestRefundService()
	roles.grant(rbac.RoleOracle, "oracle-1")

	err := svc.ProcessRefund(context.Background(), "oracle-1", "refund_404")
	if !errors.Is(err, ErrRefundNotFound) {
		t.Errorf("ProcessRefund(missing) = %v, want ErrRefundNotFound", err)
	}
}

func TestProcessRefundTwice(t *testing.T) {
	svc, _, roles, _ := newTestRefundService()
	r := createTestRefund(t, svc, "pay-1", 100)
	roles.grant(rbac.RoleSettlementOperator, "op-1")

	if err := svc.ProcessRefund(context.Background(), "op-1", r.RefundID); err != nil {
		t.Fatalf("first process: %v", err)
	}

	err := svc.ProcessRefund(context.Background(), "op-1", r.RefundID)
	if !errors.Is(err, ErrRefundAlreadyProcessed) {
		t.Errorf("second process = %v, want ErrRefundAlreadyProcessed", err)
	}
}

func TestGetRefund(t *testing.T) {
	svc, _, _, _ := newTestRefundService()
	r := createTestRefund(t, svc, "pay-1", 100)

	got, err := svc.GetRefund(context.Background(), r.RefundID)
	if err != nil {
		t.Fatalf("GetRefund: %v", err)
	}
	if got.PaymentID != "pay-1" || got.Amount.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("unexpected refund: %+v", got)
	}

	_, err = svc.GetRefund(context.Background(), "refund_404")
	if !errors.Is(err, ErrRefundNotFound) {
		t.Errorf("GetRefund(missing) = %v, want ErrRefundNotFound", err)
	}
}

func TestGetPaymentRefunds(t *testing.T) {
	svc, _, _, _ := newTestRefundService()
	createTestRefund(t, svc, "pay-1", 100)
	createTestRefund(t, svc, "pay-2", 999)
	createTestRefund(t, svc, "pay-1", 200)

	refunds, err := svc.GetPaymentRefunds(context.Background(), "pay-1")
	if err != nil {
		t.Fatalf("GetPaymentRefunds: %v", err)
	}
	if len(refunds) != 2 {
		t.Fatalf("got %d refunds, want 2", len(refunds))
	}
	if refunds[0].RefundID != "refund_1" || refunds[1].RefundID != "refund_3" {
		t.Errorf("refund order = %q, %q; want refund_1, refund_3", refunds[0].RefundID, refunds[1].RefundID)
	}
}

func TestGetPaymentRefundsSkipsUnresolvable(t *testing.T) {
	svc, store, _, _ := newTestRefundService()
	createTestRefund(t, svc, "pay-1", 100)
	middle := createTestRefund(t, svc, "pay-1", 200)
	createTestRefund(t, svc, "pay-1", 300)

	delete(store.refunds, middle.RefundID) // index entry left dangling

	refunds, err := svc.GetPaymentRefunds(context.Background(), "pay-1")
	if err != nil {
		t.Fatalf("GetPaymentRefunds with dangling index entry: %v", err)
	}
	if len(refunds) != 2 {
		t.Fatalf("got %d refunds, want 2 (dangling entry skipped)", len(refunds))
	}
	for _, r := range refunds {
		if r.RefundID == middle.RefundID {
			t.Errorf("deleted refund %q should have been skipped", middle.RefundID)
		}
	}
}

func TestGetPaymentRefundsEmpty(t *testing.T) {
	svc, _, _, _ := newTestRefundService()

	refunds, err := svc.GetPaymentRefunds(context.Background(), "no-such-payment")
	if err != nil {
		t.Fatalf("GetPaymentRefunds: %v", err)
	}
	if len(refunds) != 0 {
		t.Errorf("got %d refunds, want 0", len(refunds))
	}
}

func TestRefundCountersSurviveManyPayments(t *testing.T) {
	svc, _, _, _ := newTestRefundService()

	// Counter is global, not per payment.
	for i := 0; i < 5; i++ {
		r := createTestRefund(t, svc, fmt.Sprintf("pay-%d", i), 10)
		want := models.FormatRefundID(uint64(i + 1))
		if r.RefundID != want {
			t.Errorf("refund id = %q, want %q", r.RefundID, want)
		}
	}
}
