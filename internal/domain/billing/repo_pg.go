package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/clinicops/clinic/internal/platform/db"
	"github.com/clinicops/clinic/pkg/date"
)

// -- ServicePrice --

type servicePriceRepoPG struct{ pool *pgxpool.Pool }

func NewServicePriceRepoPG(pool *pgxpool.Pool) ServicePriceRepository {
	return &servicePriceRepoPG{pool: pool}
}

func (r *servicePriceRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const servicePriceCols = `id, service_name, description, price, created_at, updated_at`

func scanServicePrice(row pgx.Row) (*ServicePrice, error) {
	var s ServicePrice
	err := row.Scan(&s.ID, &s.ServiceName, &s.Description, &s.Price, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, db.MapError(err, "service price")
	}
	return &s, nil
}

func (r *servicePriceRepoPG) Create(ctx context.Context, s *ServicePrice) error {
	s.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO service_price (id, service_name, description, price)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at`,
		s.ID, s.ServiceName, s.Description, s.Price,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return db.MapError(err, "service price")
}

func (r *servicePriceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ServicePrice, error) {
	return scanServicePrice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+servicePriceCols+` FROM service_price WHERE id = $1`, id))
}

func (r *servicePriceRepoPG) Update(ctx context.Context, s *ServicePrice) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE service_price SET service_name=$2, description=$3, price=$4, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		s.ID, s.ServiceName, s.Description, s.Price,
	).Scan(&s.UpdatedAt)
	return db.MapError(err, "service price")
}

func (r *servicePriceRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM service_price WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err, "service price")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "service price")
	}
	return nil
}

func (r *servicePriceRepoPG) List(ctx context.Context, search string, limit, offset int) ([]*ServicePrice, int, error) {
	q := db.NewSearchQuery("service_price", servicePriceCols)
	if search != "" {
		q.Contains(search, "service_name")
	}
	q.OrderBy("service_name")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*ServicePrice
	for rows.Next() {
		s, err := scanServicePrice(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

// -- Bill --

type billRepoPG struct{ pool *pgxpool.Pool }

func NewBillRepoPG(pool *pgxpool.Pool) BillRepository { return &billRepoPG{pool: pool} }

func (r *billRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const billCols = `id, patient_id, appointment_id, total_amount, patient_responsibility,
	issued_date, due_date, status, notes`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.PatientID, &b.AppointmentID, &b.TotalAmount, &b.PatientResponsibility,
		&b.IssuedDate, &b.DueDate, &b.Status, &b.Notes)
	if err != nil {
		return nil, db.MapError(err, "bill")
	}
	return &b, nil
}

func (r *billRepoPG) Create(ctx context.Context, b *Bill) error {
	b.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO bill (id, patient_id, appointment_id, total_amount, patient_responsibility,
			due_date, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING issued_date`,
		b.ID, b.PatientID, b.AppointmentID, b.TotalAmount, b.PatientResponsibility,
		b.DueDate, b.Status, b.Notes,
	).Scan(&b.IssuedDate)
	return db.MapError(err, "bill")
}

func (r *billRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bill WHERE id = $1`, id))
}

func (r *billRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bill WHERE id = $1 FOR UPDATE`, id))
}

func (r *billRepoPG) Update(ctx context.Context, b *Bill) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE bill SET due_date=$2, notes=$3 WHERE id = $1`,
		b.ID, b.DueDate, b.Notes)
	if err != nil {
		return db.MapError(err, "bill")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "bill")
	}
	return nil
}

func (r *billRepoPG) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE bill SET status=$2 WHERE id = $1`, id, status)
	if err != nil {
		return db.MapError(err, "bill")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "bill")
	}
	return nil
}

func (r *billRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM bill WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err, "bill")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "bill")
	}
	return nil
}

func (r *billRepoPG) List(ctx context.Context, f BillFilter, limit, offset int) ([]*Bill, int, error) {
	q := db.NewSearchQuery("bill", billCols)
	if f.Status != "" {
		q.Eq("status", f.Status)
	}
	if f.PatientID != nil {
		q.Eq("patient_id", *f.PatientID)
	}
	start, end := date.Span(f.DateFrom, f.DateTo)
	if start != nil {
		q.Cmp("issued_date", ">=", *start)
	}
	if end != nil {
		q.Cmp("issued_date", "<", *end)
	}
	q.OrderBy("issued_date DESC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, rows.Err()
}

// -- BillDetail --

type billDetailRepoPG struct{ pool *pgxpool.Pool }

func NewBillDetailRepoPG(pool *pgxpool.Pool) BillDetailRepository {
	return &billDetailRepoPG{pool: pool}
}

func (r *billDetailRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const billDetailCols = `id, bill_id, service_id, item_id, quantity, unit_price, discount, total`

func scanBillDetail(row pgx.Row) (*BillDetail, error) {
	var d BillDetail
	err := row.Scan(&d.ID, &d.BillID, &d.ServiceID, &d.ItemID, &d.Quantity, &d.UnitPrice, &d.Discount, &d.Total)
	if err != nil {
		return nil, db.MapError(err, "bill detail")
	}
	return &d, nil
}

func (r *billDetailRepoPG) Create(ctx context.Context, d *BillDetail) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bill_detail (id, bill_id, service_id, item_id, quantity, unit_price, discount, total)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, d.BillID, d.ServiceID, d.ItemID, d.Quantity, d.UnitPrice, d.Discount, d.Total)
	return db.MapError(err, "bill detail")
}

func (r *billDetailRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*BillDetail, error) {
	return scanBillDetail(r.conn(ctx).QueryRow(ctx,
		`SELECT `+billDetailCols+` FROM bill_detail WHERE id = $1`, id))
}

func (r *billDetailRepoPG) ListByBill(ctx context.Context, billID uuid.UUID) ([]*BillDetail, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+billDetailCols+` FROM bill_detail WHERE bill_id = $1 ORDER BY id`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*BillDetail
	for rows.Next() {
		d, err := scanBillDetail(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *billDetailRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM bill_detail WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err, "bill detail")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "bill detail")
	}
	return nil
}

// -- Payment --

type paymentRepoPG struct{ pool *pgxpool.Pool }

func NewPaymentRepoPG(pool *pgxpool.Pool) PaymentRepository { return &paymentRepoPG{pool: pool} }

func (r *paymentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const paymentCols = `id, bill_id, payment_date, payment_method, amount_paid, transaction_reference,
	received_by, notes`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.BillID, &p.PaymentDate, &p.PaymentMethod, &p.AmountPaid, &p.TransactionReference,
		&p.ReceivedBy, &p.Notes)
	if err != nil {
		return nil, db.MapError(err, "payment")
	}
	return &p, nil
}

func (r *paymentRepoPG) Create(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payment (id, bill_id, payment_date, payment_method, amount_paid,
			transaction_reference, received_by, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.BillID, p.PaymentDate, p.PaymentMethod, p.AmountPaid,
		p.TransactionReference, p.ReceivedBy, p.Notes)
	return db.MapError(err, "payment")
}

func (r *paymentRepoPG) ListByBill(ctx context.Context, billID uuid.UUID) ([]*Payment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+paymentCols+` FROM payment WHERE bill_id = $1 ORDER BY payment_date DESC`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *paymentRepoPG) TotalPaid(ctx context.Context, billID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_paid), 0) FROM payment WHERE bill_id = $1`, billID).Scan(&total)
	return total, err
}

func (r *paymentRepoPG) List(ctx context.Context, f PaymentFilter, limit, offset int) ([]*Payment, int, error) {
	q := db.NewSearchQuery("payment", paymentCols)
	if f.BillID != nil {
		q.Eq("bill_id", *f.BillID)
	}
	start, end := date.Span(f.DateFrom, f.DateTo)
	if start != nil {
		q.Cmp("payment_date", ">=", *start)
	}
	if end != nil {
		q.Cmp("payment_date", "<", *end)
	}
	q.OrderBy("payment_date DESC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
