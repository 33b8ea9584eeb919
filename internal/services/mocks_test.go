package services

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/fluxapay/backend/internal/events"
	"github.com/fluxapay/backend/internal/models"
	"github.com/google/uuid"
)

// In-memory fakes for the store interfaces. They hold copies, so a record
// mutated by a service only changes the store through Update, like a real
// backend.

type fakePaymentStore struct {
	payments map[string]models.PaymentCharge
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[string]models.PaymentCharge)}
}

func (f *fakePaymentStore) Create(_ context.Context, p *models.PaymentCharge) error {
	f.payments[p.PaymentID] = clonePayment(*p)
	return nil
}

func (f *fakePaymentStore) GetByID(_ context.Context, paymentID string) (*models.PaymentCharge, error) {
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, nil
	}
	c := clonePayment(p)
	return &c, nil
}

func (f *fakePaymentStore) Update(_ context.Context, p *models.PaymentCharge) error {
	f.payments[p.PaymentID] = clonePayment(*p)
	return nil
}

func (f *fakePaymentStore) ListExpiredPendingIDs(_ context.Context, cutoff time.Time, limit int) ([]string, error) {
	var ids []string
	for id, p := range f.payments {
		if p.Status == models.PaymentStatusPending && p.ExpiresAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakePaymentStore) ListByMerchant(_ context.Context, merchantID string, limit, offset int) ([]models.PaymentCharge, error) {
	var ids []string
	for id, p := range f.payments {
		if p.MerchantID == merchantID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var out []models.PaymentCharge
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, clonePayment(f.payments[id]))
	}
	return out, nil
}

func clonePayment(p models.PaymentCharge) models.PaymentCharge {
	if p.Amount != nil {
		p.Amount = new(big.Int).Set(p.Amount)
	}
	if p.PayerAddress != nil {
		v := *p.PayerAddress
		p.PayerAddress = &v
	}
	if p.TxHash != nil {
		v := *p.TxHash
		p.TxHash = &v
	}
	if p.ConfirmedAt != nil {
		v := *p.ConfirmedAt
		p.ConfirmedAt = &v
	}
	return p
}

type fakeRefundStore struct {
	refunds map[string]models.Refund
	index   map[string][]string
	counter uint64
}

func newFakeRefundStore() *fakeRefundStore {
	return &fakeRefundStore{
		refunds: make(map[string]models.Refund),
		index:   make(map[string][]string),
	}
}

func (f *fakeRefundStore) CreateWithNextID(_ context.Context, r *models.Refund) error {
	f.counter++
	r.RefundID = models.FormatRefundID(f.counter)
	f.refunds[r.RefundID] = cloneRefund(*r)
	f.index[r.PaymentID] = append(f.index[r.PaymentID], r.RefundID)
	return nil
}

func (f *fakeRefundStore) GetByID(_ context.Context, refundID string) (*models.Refund, error) {
	r, ok := f.refunds[refundID]
	if !ok {
		return nil, nil
	}
	c := cloneRefund(r)
	return &c, nil
}

func (f *fakeRefundStore) Update(_ context.Context, r *models.Refund) error {
	f.refunds[r.RefundID] = cloneRefund(*r)
	return nil
}

func (f *fakeRefundStore) ListIDsByPayment(_ context.Context, paymentID string) ([]string, error) {
	ids := f.index[paymentID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

func cloneRefund(r models.Refund) models.Refund {
	if r.Amount != nil {
		r.Amount = new(big.Int).Set(r.Amount)
	}
	if r.ProcessedAt != nil {
		v := *r.ProcessedAt
		r.ProcessedAt = &v
	}
	return r
}

type fakeMerchantStore struct {
	merchants map[string]models.Merchant
	admin     string
}

func newFakeMerchantStore() *fakeMerchantStore {
	return &fakeMerchantStore{merchants: make(map[string]models.Merchant)}
}

func (f *fakeMerchantStore) Create(_ context.Context, m *models.Merchant) error {
	f.merchants[m.MerchantID] = *m
	return nil
}

func (f *fakeMerchantStore) GetByID(_ context.Context, merchantID string) (*models.Merchant, error) {
	m, ok := f.merchants[merchantID]
	if !ok {
		return nil, nil
	}
	c := m
	return &c, nil
}

func (f *fakeMerchantStore) Update(_ context.Context, m *models.Merchant) error {
	f.merchants[m.MerchantID] = *m
	return nil
}

func (f *fakeMerchantStore) Admin(_ context.Context) (string, error) {
	return f.admin, nil
}

func (f *fakeMerchantStore) SetAdmin(_ context.Context, address string) error {
	f.admin = address
	return nil
}

type fakeAuditStore struct {
	entries []models.AuditLog
}

func (f *fakeAuditStore) Log(_ context.Context, entry models.AuditLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditStore) GetByEntity(_ context.Context, entityType, entityID string, limit, offset int) ([]models.AuditLog, error) {
	var out []models.AuditLog
	for i := len(f.entries) - 1; i >= 0; i-- { // newest first
		e := f.entries[i]
		if e.EntityType != entityType || e.EntityID == nil || *e.EntityID != entityID {
			continue
		}
		out = append(out, e)
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type recordingPublisher struct {
	published []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event events.Event) error {
	p.published = append(p.published, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.published))
	for i, e := range p.published {
		out[i] = e.Type
	}
	return out
}

type fakeRoles struct {
	grants map[string]map[string]bool // account -> role -> held
}

func newFakeRoles() *fakeRoles {
	return &fakeRoles{grants: make(map[string]map[string]bool)}
}

func (f *fakeRoles) HasRole(_ context.Context, role, account string) (bool, error) {
	return f.grants[account][role], nil
}

func (f *fakeRoles) grant(role, account string) {
	if f.grants[account] == nil {
		f.grants[account] = make(map[string]bool)
	}
	f.grants[account][role] = true
}

func (f *fakeRoles) revoke(role, account string) {
	delete(f.grants[account], role)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func merchantUpdate(name, currency *string, active *bool) models.MerchantUpdate {
	return models.MerchantUpdate{
		BusinessName:       name,
		SettlementCurrency: currency,
		Active:             active,
	}
}

type fakePayloadStore struct {
	payloads map[string]*models.AuthPayload
	seq      int
}

func newFakePayloadStore() *fakePayloadStore {
	return &fakePayloadStore{payloads: make(map[string]*models.AuthPayload)}
}

func (f *fakePayloadStore) CreateProofPayload(_ context.Context, ttl time.Duration) (*models.AuthPayload, error) {
	f.seq++
	p := &models.AuthPayload{
		ID:        uuid.New(),
		Payload:   fmt.Sprintf("nonce-%d", f.seq),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}
	f.payloads[p.Payload] = p
	cp := *p
	return &cp, nil
}

func (f *fakePayloadStore) ConsumeProofPayload(_ context.Context, payload string) (*models.AuthPayload, error) {
	p, ok := f.payloads[payload]
	if !ok || p.Used || time.Now().After(p.ExpiresAt) {
		return nil, nil
	}
	p.Used = true
	cp := *p
	return &cp, nil
}
