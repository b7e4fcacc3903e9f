package billing

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinicops/clinic/internal/platform/apperr"
	"github.com/clinicops/clinic/internal/platform/auth"
	"github.com/clinicops/clinic/internal/platform/db"
	"github.com/clinicops/clinic/pkg/date"
)

// -- Mock Repositories --

type mockServicePriceRepo struct {
	items map[uuid.UUID]*ServicePrice
}

func newMockServicePriceRepo() *mockServicePriceRepo {
	return &mockServicePriceRepo{items: make(map[uuid.UUID]*ServicePrice)}
}

func (m *mockServicePriceRepo) Create(_ context.Context, s *ServicePrice) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()
	cp := *s
	m.items[s.ID] = &cp
	return nil
}

func (m *mockServicePriceRepo) GetByID(_ context.Context, id uuid.UUID) (*ServicePrice, error) {
	s, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("service price not found")
	}
	cp := *s
	return &cp, nil
}

func (m *mockServicePriceRepo) Update(_ context.Context, s *ServicePrice) error {
	if _, ok := m.items[s.ID]; !ok {
		return apperr.NotFound("service price not found")
	}
	cp := *s
	m.items[s.ID] = &cp
	return nil
}

func (m *mockServicePriceRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return apperr.NotFound("service price not found")
	}
	delete(m.items, id)
	return nil
}

func (m *mockServicePriceRepo) List(_ context.Context, search string, limit, offset int) ([]*ServicePrice, int, error) {
	var result []*ServicePrice
	for _, s := range m.items {
		if search != "" && !strings.Contains(strings.ToLower(s.ServiceName), strings.ToLower(search)) {
			continue
		}
		cp := *s
		result = append(result, &cp)
	}
	return result, len(result), nil
}

// store holds bills, details and payments behind one mutex so the mocks can
// be shared across goroutines.
type store struct {
	mu       sync.Mutex
	bills    map[uuid.UUID]*Bill
	details  map[uuid.UUID]*BillDetail
	payments map[uuid.UUID]*Payment
}

func newStore() *store {
	return &store{
		bills:    make(map[uuid.UUID]*Bill),
		details:  make(map[uuid.UUID]*BillDetail),
		payments: make(map[uuid.UUID]*Payment),
	}
}

type mockBillRepo struct{ s *store }

func (m mockBillRepo) Create(_ context.Context, b *Bill) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	b.ID = uuid.New()
	b.IssuedDate = time.Now()
	cp := *b
	cp.Details, cp.Payments, cp.RemainingAmount = nil, nil, nil
	m.s.bills[b.ID] = &cp
	return nil
}

func (m mockBillRepo) GetByID(_ context.Context, id uuid.UUID) (*Bill, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	b, ok := m.s.bills[id]
	if !ok {
		return nil, apperr.NotFound("bill not found")
	}
	cp := *b
	return &cp, nil
}

func (m mockBillRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return m.GetByID(ctx, id)
}

func (m mockBillRepo) Update(_ context.Context, b *Bill) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	existing, ok := m.s.bills[b.ID]
	if !ok {
		return apperr.NotFound("bill not found")
	}
	existing.DueDate = b.DueDate
	existing.Notes = b.Notes
	return nil
}

func (m mockBillRepo) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	b, ok := m.s.bills[id]
	if !ok {
		return apperr.NotFound("bill not found")
	}
	b.Status = status
	return nil
}

func (m mockBillRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.bills[id]; !ok {
		return apperr.NotFound("bill not found")
	}
	delete(m.s.bills, id)
	for pid, p := range m.s.payments {
		if p.BillID == id {
			delete(m.s.payments, pid)
		}
	}
	for did, d := range m.s.details {
		if d.BillID == id {
			delete(m.s.details, did)
		}
	}
	return nil
}

func (m mockBillRepo) List(_ context.Context, f BillFilter, limit, offset int) ([]*Bill, int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	start, end := date.Span(f.DateFrom, f.DateTo)
	var result []*Bill
	for _, b := range m.s.bills {
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.PatientID != nil && b.PatientID != *f.PatientID {
			continue
		}
		if start != nil && b.IssuedDate.Before(*start) {
			continue
		}
		if end != nil && !b.IssuedDate.Before(*end) {
			continue
		}
		cp := *b
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].IssuedDate.After(result[j].IssuedDate) })
	return result, len(result), nil
}

type mockBillDetailRepo struct{ s *store }

func (m mockBillDetailRepo) Create(_ context.Context, d *BillDetail) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.bills[d.BillID]; !ok {
		return apperr.InvalidInput("bill detail references a record that does not exist")
	}
	d.ID = uuid.New()
	cp := *d
	m.s.details[d.ID] = &cp
	return nil
}

func (m mockBillDetailRepo) GetByID(_ context.Context, id uuid.UUID) (*BillDetail, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	d, ok := m.s.details[id]
	if !ok {
		return nil, apperr.NotFound("bill detail not found")
	}
	cp := *d
	return &cp, nil
}

func (m mockBillDetailRepo) ListByBill(_ context.Context, billID uuid.UUID) ([]*BillDetail, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []*BillDetail
	for _, d := range m.s.details {
		if d.BillID == billID {
			cp := *d
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m mockBillDetailRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.details[id]; !ok {
		return apperr.NotFound("bill detail not found")
	}
	delete(m.s.details, id)
	return nil
}

type mockPaymentRepo struct{ s *store }

func (m mockPaymentRepo) Create(_ context.Context, p *Payment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p.ID = uuid.New()
	cp := *p
	m.s.payments[p.ID] = &cp
	return nil
}

func (m mockPaymentRepo) ListByBill(_ context.Context, billID uuid.UUID) ([]*Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var result []*Payment
	for _, p := range m.s.payments {
		if p.BillID == billID {
			cp := *p
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PaymentDate.After(result[j].PaymentDate) })
	return result, nil
}

func (m mockPaymentRepo) TotalPaid(_ context.Context, billID uuid.UUID) (decimal.Decimal, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	total := decimal.Zero
	for _, p := range m.s.payments {
		if p.BillID == billID {
			total = total.Add(p.AmountPaid)
		}
	}
	return total, nil
}

func (m mockPaymentRepo) List(_ context.Context, f PaymentFilter, limit, offset int) ([]*Payment, int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	start, end := date.Span(f.DateFrom, f.DateTo)
	var result []*Payment
	for _, p := range m.s.payments {
		if f.BillID != nil && p.BillID != *f.BillID {
			continue
		}
		if start != nil && p.PaymentDate.Before(*start) {
			continue
		}
		if end != nil && !p.PaymentDate.Before(*end) {
			continue
		}
		cp := *p
		result = append(result, &cp)
	}
	return result, len(result), nil
}

// lockingTransactor serialises transactions the way a bill row lock does.
type lockingTransactor struct{ mu *sync.Mutex }

func (t lockingTransactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

func newTestService() (*Service, *store) {
	st := newStore()
	svc := NewService(newMockServicePriceRepo(), mockBillRepo{st}, mockBillDetailRepo{st}, mockPaymentRepo{st}, db.NoopTransactor{})
	return svc, st
}

var clerk = auth.Actor{StaffID: uuid.MustParse("6f1c6c4e-1a0b-4b8e-9a55-0c9a8f5b2d11"), Role: auth.RoleReceptionist}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustBill(t *testing.T, svc *Service, total string) *Bill {
	t.Helper()
	b, err := svc.CreateBill(context.Background(), BillInput{
		PatientID:             uuid.New(),
		TotalAmount:           dec(total),
		PatientResponsibility: dec(total),
		DueDate:               date.New(2024, time.August, 1),
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	return b
}

func pay(svc *Service, billID uuid.UUID, amount string) (*PaymentResult, error) {
	return svc.RecordPayment(context.Background(), clerk, PaymentInput{
		BillID: billID, AmountPaid: dec(amount), PaymentMethod: MethodCash,
	})
}

// -- RecordPayment --

func TestService_RecordPayment_PartialThenPaid(t *testing.T) {
	svc, _ := newTestService()
	b := mustBill(t, svc, "100.00")

	res, err := pay(svc, b.ID, "40.00")
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if res.Bill.Status != BillPartiallyPaid {
		t.Errorf("expected partially_paid, got %s", res.Bill.Status)
	}
	if !res.Bill.RemainingAmount.Equal(dec("60")) {
		t.Errorf("expected remaining 60, got %s", res.Bill.RemainingAmount)
	}
	if res.Payment.ReceivedBy != clerk.StaffID {
		t.Errorf("expected received_by to be the actor, got %s", res.Payment.ReceivedBy)
	}

	res, err = pay(svc, b.ID, "60.00")
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if res.Bill.Status != BillPaid {
		t.Errorf("expected paid, got %s", res.Bill.Status)
	}

	bal, err := svc.GetBalance(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !bal.TotalPaid.Equal(dec("100")) || !bal.Remaining.IsZero() || bal.Status != BillPaid {
		t.Errorf("unexpected balance: %+v", bal)
	}
	if len(bal.Payments) != 2 {
		t.Errorf("expected 2 payments, got %d", len(bal.Payments))
	}
}

func TestService_RecordPayment_Overpayment(t *testing.T) {
	svc, _ := newTestService()
	b := mustBill(t, svc, "50.00")

	res, err := pay(svc, b.ID, "80.00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Bill.Status != BillPaid {
		t.Errorf("expected paid, got %s", res.Bill.Status)
	}
	bal, _ := svc.GetBalance(context.Background(), b.ID)
	if !bal.Remaining.Equal(dec("-30")) {
		t.Errorf("expected remaining -30, got %s", bal.Remaining)
	}
}

func TestService_RecordPayment_InvalidAmount(t *testing.T) {
	svc, st := newTestService()
	b := mustBill(t, svc, "100.00")

	for _, amount := range []string{"0", "-5.00"} {
		_, err := pay(svc, b.ID, amount)
		if !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("amount %s: expected invalid input, got %v", amount, err)
		}
	}
	if len(st.payments) != 0 {
		t.Errorf("expected no payments stored, got %d", len(st.payments))
	}
	if st.bills[b.ID].Status != BillPending {
		t.Errorf("bill status must be unchanged, got %s", st.bills[b.ID].Status)
	}
}

func TestService_RecordPayment_UnknownBill(t *testing.T) {
	svc, _ := newTestService()
	_, err := pay(svc, uuid.New(), "10.00")
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestService_RecordPayment_BadMethod(t *testing.T) {
	svc, _ := newTestService()
	b := mustBill(t, svc, "100.00")
	_, err := svc.RecordPayment(context.Background(), clerk, PaymentInput{
		BillID: b.ID, AmountPaid: dec("10"), PaymentMethod: "cheque",
	})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestService_RecordPayment_CancelledBill(t *testing.T) {
	svc, st := newTestService()
	b := mustBill(t, svc, "100.00")
	if _, err := svc.CancelBill(context.Background(), b.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := pay(svc, b.ID, "10.00")
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("expected invalid state, got %v", err)
	}
	if len(st.payments) != 0 {
		t.Error("payment must not be stored against a cancelled bill")
	}
}

func TestService_RecordPayment_RequiresStaff(t *testing.T) {
	svc, _ := newTestService()
	b := mustBill(t, svc, "100.00")
	_, err := svc.RecordPayment(context.Background(), auth.Actor{Role: auth.RoleReceptionist},
		PaymentInput{BillID: b.ID, AmountPaid: dec("10"), PaymentMethod: MethodCash})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestService_RecordPayment_ConcurrentPaymentsSettle(t *testing.T) {
	st := newStore()
	svc := NewService(newMockServicePriceRepo(), mockBillRepo{st}, mockBillDetailRepo{st}, mockPaymentRepo{st},
		lockingTransactor{mu: &sync.Mutex{}})
	b := mustBill(t, svc, "100.00")

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := pay(svc, b.ID, "10.00"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("payment failed: %v", err)
	}

	bal, err := svc.GetBalance(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal.Status != BillPaid || !bal.TotalPaid.Equal(dec("100")) {
		t.Errorf("expected paid with 100 received, got %s with %s", bal.Status, bal.TotalPaid)
	}
}

// -- Bills --

func TestService_CreateBill_WithDetails(t *testing.T) {
	svc, st := newTestService()
	total := dec("45.00")
	b, err := svc.CreateBill(context.Background(), BillInput{
		PatientID:             uuid.New(),
		TotalAmount:           dec("75.00"),
		PatientResponsibility: dec("20.00"),
		DueDate:               date.New(2024, time.August, 1),
		Details: []BillDetailInput{
			{Quantity: 2, UnitPrice: dec("15.00"), Discount: dec("0")},
			{Quantity: 1, UnitPrice: dec("50.00"), Discount: dec("5.00"), Total: &total},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != BillPending {
		t.Errorf("expected pending, got %s", b.Status)
	}
	if len(st.details) != 2 {
		t.Fatalf("expected 2 stored details, got %d", len(st.details))
	}
	if !b.Details[0].Total.Equal(dec("30")) {
		t.Errorf("expected computed total 30, got %s", b.Details[0].Total)
	}
}

func TestService_CreateBill_Validation(t *testing.T) {
	svc, st := newTestService()
	wrong := dec("99.00")
	tests := []struct {
		name string
		in   BillInput
	}{
		{"missing patient", BillInput{TotalAmount: dec("10"), DueDate: date.New(2024, 8, 1)}},
		{"missing due date", BillInput{PatientID: uuid.New(), TotalAmount: dec("10")}},
		{"negative total", BillInput{PatientID: uuid.New(), TotalAmount: dec("-1"), DueDate: date.New(2024, 8, 1)}},
		{"mismatched line total", BillInput{PatientID: uuid.New(), TotalAmount: dec("10"), DueDate: date.New(2024, 8, 1),
			Details: []BillDetailInput{{Quantity: 1, UnitPrice: dec("10"), Total: &wrong}}}},
		{"discount above amount", BillInput{PatientID: uuid.New(), TotalAmount: dec("10"), DueDate: date.New(2024, 8, 1),
			Details: []BillDetailInput{{Quantity: 1, UnitPrice: dec("10"), Discount: dec("11")}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateBill(context.Background(), tt.in); !errors.Is(err, apperr.ErrInvalidInput) {
				t.Errorf("expected invalid input, got %v", err)
			}
		})
	}
	if len(st.bills) != 0 {
		t.Errorf("no bill should be stored, got %d", len(st.bills))
	}
}

func TestService_GetBill_IncludesPaymentsAndRemaining(t *testing.T) {
	svc, _ := newTestService()
	b := mustBill(t, svc, "100.00")
	pay(svc, b.ID, "25.00")

	got, err := svc.GetBill(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Payments) != 1 || !got.RemainingAmount.Equal(dec("75")) {
		t.Errorf("unexpected bill: payments=%d remaining=%s", len(got.Payments), got.RemainingAmount)
	}
}

func TestService_CancelBill(t *testing.T) {
	svc, _ := newTestService()
	partial := mustBill(t, svc, "100.00")
	pay(svc, partial.ID, "10.00")
	if got, err := svc.CancelBill(context.Background(), partial.ID); err != nil || got.Status != BillCancelled {
		t.Errorf("partially paid bill should cancel, got %v", err)
	}

	paid := mustBill(t, svc, "10.00")
	pay(svc, paid.ID, "10.00")
	if _, err := svc.CancelBill(context.Background(), paid.ID); !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("paid bill: expected invalid state, got %v", err)
	}
	if _, err := svc.CancelBill(context.Background(), partial.ID); !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("cancelled bill: expected invalid state, got %v", err)
	}
	if _, err := svc.CancelBill(context.Background(), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown bill: expected not found, got %v", err)
	}
}

func TestService_UpdateBill(t *testing.T) {
	svc, st := newTestService()
	b := mustBill(t, svc, "100.00")
	due := date.New(2024, time.September, 15)
	notes := "insurer pays remainder"
	got, err := svc.UpdateBill(context.Background(), b.ID, BillUpdate{DueDate: &due, Notes: &notes})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.DueDate.Equal(due.Time) || *st.bills[b.ID].Notes != notes {
		t.Errorf("unexpected bill: %+v", got)
	}
}

func TestService_ListBills_Filters(t *testing.T) {
	svc, _ := newTestService()
	a := mustBill(t, svc, "10.00")
	mustBill(t, svc, "20.00")
	pay(svc, a.ID, "10.00")

	items, total, err := svc.ListBills(context.Background(), BillFilter{Status: BillPaid}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || items[0].ID != a.ID {
		t.Errorf("expected only the paid bill, got %d", total)
	}

	today := date.Of(time.Now().UTC())
	_, total, _ = svc.ListBills(context.Background(), BillFilter{DateFrom: &today, DateTo: &today}, 20, 0)
	if total != 2 {
		t.Errorf("expected both bills issued today, got %d", total)
	}

	if _, _, err := svc.ListBills(context.Background(), BillFilter{Status: "overdue"}, 20, 0); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
	yesterday := today.AddDays(-1)
	if _, _, err := svc.ListBills(context.Background(), BillFilter{DateFrom: &today, DateTo: &yesterday}, 20, 0); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("inverted range: expected invalid input, got %v", err)
	}
}

// -- Bill details --

func TestService_AddBillDetail(t *testing.T) {
	svc, _ := newTestService()
	b := mustBill(t, svc, "100.00")

	d, err := svc.AddBillDetail(context.Background(), b.ID, BillDetailInput{UnitPrice: dec("12.50")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Quantity != 1 || !d.Total.Equal(dec("12.5")) {
		t.Errorf("unexpected detail: %+v", d)
	}
	details, _ := svc.ListBillDetails(context.Background(), b.ID)
	if len(details) != 1 {
		t.Errorf("expected 1 detail, got %d", len(details))
	}

	svc.CancelBill(context.Background(), b.ID)
	if _, err := svc.AddBillDetail(context.Background(), b.ID, BillDetailInput{UnitPrice: dec("1")}); !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("cancelled bill: expected invalid state, got %v", err)
	}
	if err := svc.DeleteBillDetail(context.Background(), d.ID); err != nil {
		t.Errorf("delete: %v", err)
	}
	if _, err := svc.ListBillDetails(context.Background(), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown bill: expected not found, got %v", err)
	}
}

// -- Service prices --

func TestService_ServicePrices(t *testing.T) {
	svc, _ := newTestService()
	sp, err := svc.CreateServicePrice(context.Background(), ServicePriceInput{ServiceName: " X-Ray ", Price: dec("80.00")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sp.ServiceName != "X-Ray" {
		t.Errorf("expected trimmed name, got %q", sp.ServiceName)
	}
	if _, err := svc.CreateServicePrice(context.Background(), ServicePriceInput{ServiceName: "Bad", Price: dec("-1")}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}

	items, _, _ := svc.ListServicePrices(context.Background(), "x-r", 20, 0)
	if len(items) != 1 {
		t.Errorf("expected search to match, got %d", len(items))
	}

	price := dec("95.00")
	got, err := svc.UpdateServicePrice(context.Background(), sp.ID, ServicePriceUpdate{Price: &price})
	if err != nil || !got.Price.Equal(price) {
		t.Errorf("update: %v %+v", err, got)
	}
	if err := svc.DeleteServicePrice(context.Background(), sp.ID); err != nil {
		t.Errorf("delete: %v", err)
	}
	if _, err := svc.GetServicePrice(context.Background(), sp.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

// -- Payments list --

func TestService_ListPayments(t *testing.T) {
	svc, _ := newTestService()
	a := mustBill(t, svc, "100.00")
	b := mustBill(t, svc, "100.00")
	pay(svc, a.ID, "10.00")
	pay(svc, a.ID, "15.00")
	pay(svc, b.ID, "20.00")

	_, total, err := svc.ListPayments(context.Background(), PaymentFilter{BillID: &a.ID}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 payments for bill, got %d", total)
	}
}
