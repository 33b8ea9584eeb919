package services

import (
	"context"
	"errors"
	"testing"

	"github.com/fluxapay/backend/internal/events"
	"go.uber.org/zap"
)

func newTestMerchantService() (*MerchantService, *fakeMerchantStore, *recordingPublisher) {
	store := newFakeMerchantStore()
	pub := &recordingPublisher{}
	svc := NewMerchantService(store, &fakeAuditStore{}, pub, zap.NewNop())
	svc.now = fixedClock(baseTime)
	return svc, store, pub
}

func TestInitializeRegistry(t *testing.T) {
	svc, store, _ := newTestMerchantService()

	if err := svc.Initialize(context.Background(), "admin-addr"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if store.admin != "admin-addr" {
		t.Errorf("admin = %q, want admin-addr", store.admin)
	}
}

func TestInitializeRegistryTwice(t *testing.T) {
	svc, store, _ := newTestMerchantService()
	if err := svc.Initialize(context.Background(), "admin-addr"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	err := svc.Initialize(context.Background(), "other-admin")
	if !errors.Is(err, ErrAdminAlreadySet) {
		t.Errorf("second Initialize = %v, want ErrAdminAlreadySet", err)
	}
	if store.admin != "admin-addr" {
		t.Errorf("admin = %q, want unchanged admin-addr", store.admin)
	}
}

func TestRegisterMerchant(t *testing.T) {
	svc, _, pub := newTestMerchantService()

	m, err := svc.RegisterMerchant(context.Background(), "merchant-1", "merchant-1", "Acme Coffee", "USDC")
	if err != nil {
		t.Fatalf("RegisterMerchant: %v", err)
	}

	if m.Verified {
		t.Error("new merchant must start unverified")
	}
	if !m.Active {
		t.Error("new merchant must start active")
	}
	if !m.CreatedAt.Equal(baseTime) {
		t.Errorf("created_at = %v, want %v", m.CreatedAt, baseTime)
	}
	if m.BusinessName != "Acme Coffee" || m.SettlementCurrency != "USDC" {
		t.Errorf("unexpected merchant: %+v", m)
	}

	if got := pub.types(); len(got) != 1 || got[0] != events.EventMerchantRegistered {
		t.Errorf("published events = %v, want [merchant_registered]", got)
	}
}

func TestRegisterMerchantSelfOnly(t *testing.T) {
	svc, store, _ := newTestMerchantService()

	_, err := svc.RegisterMerchant(context.Background(), "someone-else", "merchant-1", "Acme", "USDC")
	if !errors.Is(err, ErrMerchantUnauthorized) {
		t.Errorf("register on behalf of another account = %v, want ErrMerchantUnauthorized", err)
	}
	if len(store.merchants) != 0 {
		t.Error("refused registration must not persist anything")
	}
}

func TestRegisterMerchantDuplicate(t *testing.T) {
	svc, _, _ := newTestMerchantService()
	if _, err := svc.RegisterMerchant(context.Background(), "merchant-1", "merchant-1", "Acme", "USDC"); err != nil {
		t.Fatalf("RegisterMerchant: %v", err)
	}

	_, err := svc.RegisterMerchant(context.Background(), "merchant-1", "merchant-1", "Acme Again", "EURC")
	if !errors.Is(err, ErrMerchantAlreadyExists) {
		t.Errorf("duplicate registration = %v, want ErrMerchantAlreadyExists", err)
	}
}

func TestUpdateMerchantPartial(t *testing.T) {
	svc, _, _ := newTestMerchantService()
	if _, err := svc.RegisterMerchant(context.Background(), "merchant-1", "merchant-1", "Acme", "USDC"); err != nil {
		t.Fatalf("RegisterMerchant: %v", err)
	}

	name := "Acme Worldwide"
	m, err := svc.UpdateMerchant(context.Background(), "merchant-1", "merchant-1", merchantUpdate(&name, nil, nil))
	if err != nil {
		t.Fatalf("UpdateMerchant: %v", err)
	}
	if m.BusinessName != "Acme Worldwide" {
		t.Errorf("business_name = %q, want Acme Worldwide", m.BusinessName)
	}
	if m.SettlementCurrency != "USDC" {
		t.Errorf("settlement_currency = %q, want untouched USDC", m.SettlementCurrency)
	}
	if !m.Active {
		t.Error("active flag must stay untouched")
	}

	inactive := false
	m, err = svc.UpdateMerchant(context.Background(), "merchant-1", "merchant-1", merchantUpdate(nil, nil, &inactive))
	if err != nil {
		t.Fatalf("UpdateMerchant: %v", err)
	}
	if m.Active {
		t.Error("active flag should have been cleared")
	}
	if m.BusinessName != "Acme Worldwide" {
		t.Error("earlier rename must survive later partial updates")
	}
}

func TestUpdateMerchantSelfOnly(t *testing.T) {
	svc, _, _ := newTestMerchantService()
	if _, err := svc.RegisterMerchant(context.Background(), "merchant-1", "merchant-1", "Acme", "USDC"); err != nil {
		t.Fatalf("RegisterMerchant: %v", err)
	}

	name := "Hijacked"
	_, err := svc.UpdateMerchant(context.Background(), "intruder", "merchant-1", merchantUpdate(&name, nil, nil))
	if !errors.Is(err, ErrMerchantUnauthorized) {
		t.Errorf("update by another account = %v, want ErrMerchantUnauthorized", err)
	}
}

func TestUpdateMerchantNotFound(t *testing.T) {
	svc, _, _ := newTestMerchantService()

	name := "Ghost"
	_, err := svc.UpdateMerchant(context.Background(), "merchant-1", "merchant-1", merchantUpdate(&name, nil, nil))
	if !errors.Is(err, ErrMerchantNotFound) {
		t.Errorf("update of missing merchant = %v, want ErrMerchantNotFound", err)
	}
}

func TestGetMerchantNotFound(t *testing.T) {
	svc, _, _ := newTestMerchantService()

	_, err := svc.GetMerchant(context.Background(), "missing")
	if !errors.Is(err, ErrMerchantNotFound) {
		t.Errorf("GetMerchant(missing) = %v, want ErrMerchantNotFound", err)
	}
}

func TestVerifyMerchant(t *testing.T) {
	svc, store, pub := newTestMerchantService()
	if err := svc.Initialize(context.Background(), "admin-addr"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if _, err := svc.RegisterMerchant(context.Background(), "merchant-1", "merchant-1", "Acme", "USDC"); err != nil {
		t.Fatalf("RegisterMerchant: %v", err)
	}

	if err := svc.VerifyMerchant(context.Background(), "admin-addr", "merchant-1"); err != nil {
		t.Fatalf("VerifyMerchant: %v", err)
	}

	stored, _ := store.GetByID(context.Background(), "merchant-1")
	if !stored.Verified {
		t.Error("merchant should be verified")
	}

	types := pub.types()
	if len(types) == 0 || types[len(types)-1] != events.EventMerchantVerified {
		t.Errorf("published events = %v, want trailing merchant_verified", types)
	}
}

func TestVerifyMerchantAdminOnly(t *testing.T) {
	svc, store, _ := newTestMerchantService()
	if err := svc.Initialize(context.Background(), "admin-addr"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if _, err := svc.RegisterMerchant(context.Background(), "merchant-1", "merchant-1", "Acme", "USDC"); err != nil {
		t.Fatalf("RegisterMerchant: %v", err)
	}

	err := svc.VerifyMerchant(context.Background(), "merchant-1", "merchant-1")
	if !errors.Is(err, ErrMerchantUnauthorized) {
		t.Errorf("self-verification = %v, want ErrMerchantUnauthorized", err)
	}

	stored, _ := store.GetByID(context.Background(), "merchant-1")
	if stored.Verified {
		t.Error("refused verification must not flip the flag")
	}
}

func TestVerifyMerchantNoAdminSet(t *testing.T) {
	svc, _, _ := newTestMerchantService()
	if _, err := svc.RegisterMerchant(context.Background(), "merchant-1", "merchant-1", "Acme", "USDC"); err != nil {
		t.Fatalf("RegisterMerchant: %v", err)
	}

	err := svc.VerifyMerchant(context.Background(), "anyone", "merchant-1")
	if !errors.Is(err, ErrMerchantUnauthorized) {
		t.Errorf("verify with no admin set = %v, want ErrMerchantUnauthorized", err)
	}
}

func TestVerifyMerchantNotFound(t *testing.T) {
	svc, _, _ := newTestMerchantService()
	if err := svc.Initialize(context.Background(), "admin-addr"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	err := svc.VerifyMerchant(context.Background(), "admin-addr", "missing")
	if !errors.Is(err, ErrMerchantNotFound) {
		t.Errorf("verify of missing merchant = %v, want ErrMerchantNotFound", err)
	}
}
