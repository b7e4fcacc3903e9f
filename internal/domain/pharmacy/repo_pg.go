package pharmacy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/clinic/internal/platform/db"
)

// -- Supplier --

type supplierRepoPG struct{ pool *pgxpool.Pool }

func NewSupplierRepoPG(pool *pgxpool.Pool) SupplierRepository { return &supplierRepoPG{pool: pool} }

func (r *supplierRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const supplierCols = `id, supplier_name, contact_person, contact_email, contact_phone, address, created_at`

func scanSupplier(row pgx.Row) (*Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.SupplierName, &s.ContactPerson, &s.ContactEmail, &s.ContactPhone, &s.Address, &s.CreatedAt)
	if err != nil {
		return nil, db.MapError(err, "supplier")
	}
	return &s, nil
}

func (r *supplierRepoPG) Create(ctx context.Context, s *Supplier) error {
	s.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO supplier (id, supplier_name, contact_person, contact_email, contact_phone, address)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`,
		s.ID, s.SupplierName, s.ContactPerson, s.ContactEmail, s.ContactPhone, s.Address,
	).Scan(&s.CreatedAt)
	return db.MapError(err, "supplier")
}

func (r *supplierRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Supplier, error) {
	return scanSupplier(r.conn(ctx).QueryRow(ctx, `SELECT `+supplierCols+` FROM supplier WHERE id = $1`, id))
}

func (r *supplierRepoPG) Update(ctx context.Context, s *Supplier) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE supplier SET supplier_name=$2, contact_person=$3, contact_email=$4, contact_phone=$5, address=$6
		WHERE id = $1`,
		s.ID, s.SupplierName, s.ContactPerson, s.ContactEmail, s.ContactPhone, s.Address)
	if err != nil {
		return db.MapError(err, "supplier")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "supplier")
	}
	return nil
}

func (r *supplierRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM supplier WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err, "supplier")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "supplier")
	}
	return nil
}

func (r *supplierRepoPG) List(ctx context.Context, search string, limit, offset int) ([]*Supplier, int, error) {
	q := db.NewSearchQuery("supplier", supplierCols)
	if search != "" {
		q.Contains(search, "supplier_name")
	}
	q.OrderBy("supplier_name")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

// -- Inventory --

type inventoryRepoPG struct{ pool *pgxpool.Pool }

func NewInventoryRepoPG(pool *pgxpool.Pool) InventoryRepository { return &inventoryRepoPG{pool: pool} }

func (r *inventoryRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const itemCols = `id, item_name, category, description, quantity_in_stock, unit_price, reorder_level,
	supplier_id, expiry_date, batch_number, storage_location, last_updated`

func scanItem(row pgx.Row) (*Item, error) {
	var i Item
	err := row.Scan(&i.ID, &i.ItemName, &i.Category, &i.Description, &i.QuantityInStock, &i.UnitPrice, &i.ReorderLevel,
		&i.SupplierID, &i.ExpiryDate, &i.BatchNumber, &i.StorageLocation, &i.LastUpdated)
	if err != nil {
		return nil, db.MapError(err, "inventory item")
	}
	return &i, nil
}

func (r *inventoryRepoPG) Create(ctx context.Context, i *Item) error {
	i.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO inventory (id, item_name, category, description, quantity_in_stock, unit_price,
			reorder_level, supplier_id, expiry_date, batch_number, storage_location)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING last_updated`,
		i.ID, i.ItemName, i.Category, i.Description, i.QuantityInStock, i.UnitPrice,
		i.ReorderLevel, i.SupplierID, i.ExpiryDate, i.BatchNumber, i.StorageLocation,
	).Scan(&i.LastUpdated)
	return db.MapError(err, "inventory item")
}

func (r *inventoryRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	return scanItem(r.conn(ctx).QueryRow(ctx, `SELECT `+itemCols+` FROM inventory WHERE id = $1`, id))
}

func (r *inventoryRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Item, error) {
	return scanItem(r.conn(ctx).QueryRow(ctx, `SELECT `+itemCols+` FROM inventory WHERE id = $1 FOR UPDATE`, id))
}

func (r *inventoryRepoPG) LockMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Item, error) {
	keys := make([]string, len(ids))
	for n, id := range ids {
		keys[n] = id.String()
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM inventory WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*Item, len(ids))
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out[i.ID] = i
	}
	return out, rows.Err()
}

func (r *inventoryRepoPG) Update(ctx context.Context, i *Item) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE inventory SET item_name=$2, category=$3, description=$4, unit_price=$5, reorder_level=$6,
			supplier_id=$7, expiry_date=$8, batch_number=$9, storage_location=$10, last_updated=NOW()
		WHERE id = $1
		RETURNING last_updated`,
		i.ID, i.ItemName, i.Category, i.Description, i.UnitPrice, i.ReorderLevel,
		i.SupplierID, i.ExpiryDate, i.BatchNumber, i.StorageLocation,
	).Scan(&i.LastUpdated)
	return db.MapError(err, "inventory item")
}

func (r *inventoryRepoPG) SetQuantity(ctx context.Context, id uuid.UUID, qty int) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE inventory SET quantity_in_stock = $2, last_updated = NOW() WHERE id = $1`, id, qty)
	if err != nil {
		return db.MapError(err, "inventory item")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "inventory item")
	}
	return nil
}

func (r *inventoryRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM inventory WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err, "inventory item")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "inventory item")
	}
	return nil
}

func (r *inventoryRepoPG) List(ctx context.Context, f ItemFilter, limit, offset int) ([]*Item, int, error) {
	q := db.NewSearchQuery("inventory", itemCols)
	if f.Category != "" {
		q.Eq("category", f.Category)
	}
	if f.Search != "" {
		q.Contains(f.Search, "item_name")
	}
	if f.LowStock {
		q.Add("quantity_in_stock <= reorder_level")
	}
	q.OrderBy("item_name")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, i)
	}
	return items, total, rows.Err()
}

// -- Prescription --

type prescriptionRepoPG struct{ pool *pgxpool.Pool }

func NewPrescriptionRepoPG(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

func (r *prescriptionRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const rxCols = `id, consultation_id, patient_id, doctor_id, prescribed_date, status, notes`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.ConsultationID, &p.PatientID, &p.DoctorID, &p.PrescribedDate, &p.Status, &p.Notes)
	if err != nil {
		return nil, db.MapError(err, "prescription")
	}
	return &p, nil
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescription (id, consultation_id, patient_id, doctor_id, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING prescribed_date`,
		p.ID, p.ConsultationID, p.PatientID, p.DoctorID, p.Status, p.Notes,
	).Scan(&p.PrescribedDate)
	return db.MapError(err, "prescription")
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.conn(ctx).QueryRow(ctx, `SELECT `+rxCols+` FROM prescription WHERE id = $1`, id))
}

func (r *prescriptionRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+rxCols+` FROM prescription WHERE id = $1 FOR UPDATE`, id))
}

func (r *prescriptionRepoPG) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE prescription SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return db.MapError(err, "prescription")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "prescription")
	}
	return nil
}

func (r *prescriptionRepoPG) List(ctx context.Context, f PrescriptionFilter, limit, offset int) ([]*Prescription, int, error) {
	q := db.NewSearchQuery("prescription", rxCols)
	if f.Status != "" {
		q.Eq("status", f.Status)
	}
	if f.PatientID != nil {
		q.Eq("patient_id", *f.PatientID)
	}
	if f.DoctorID != nil {
		q.Eq("doctor_id", *f.DoctorID)
	}
	q.OrderBy("prescribed_date DESC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

const detailCols = `id, prescription_id, medication_id, dosage, frequency, duration, quantity,
	instructions, dispensed_by, dispensed_date`

func (r *prescriptionRepoPG) AddDetail(ctx context.Context, d *PrescriptionDetail) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription_detail (id, prescription_id, medication_id, dosage, frequency,
			duration, quantity, instructions)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, d.PrescriptionID, d.MedicationID, d.Dosage, d.Frequency,
		d.Duration, d.Quantity, d.Instructions,
	)
	return db.MapError(err, "prescription detail")
}

func (r *prescriptionRepoPG) ListDetails(ctx context.Context, prescriptionID uuid.UUID) ([]*PrescriptionDetail, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+detailCols+` FROM prescription_detail WHERE prescription_id = $1 ORDER BY id`, prescriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*PrescriptionDetail
	for rows.Next() {
		var d PrescriptionDetail
		if err := rows.Scan(&d.ID, &d.PrescriptionID, &d.MedicationID, &d.Dosage, &d.Frequency, &d.Duration,
			&d.Quantity, &d.Instructions, &d.DispensedBy, &d.DispensedDate); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}

func (r *prescriptionRepoPG) MarkDispensed(ctx context.Context, prescriptionID, by uuid.UUID, at time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescription_detail SET dispensed_by = $2, dispensed_date = $3
		WHERE prescription_id = $1 AND dispensed_date IS NULL`,
		prescriptionID, by, at)
	return db.MapError(err, "prescription detail")
}
