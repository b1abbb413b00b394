package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/corvexa/it-services-portal/internal/model"
)

// SlotRepo provides access to the appointment table.  Rows are keyed by
// (date, time).  Dates travel as YYYY-MM-DD and times as HH:MM; the SQL
// formats them so the driver never has to decode DATE or TIME columns.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo returns a SlotRepo bound to db.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

// Count returns the number of slot rows.
func (r *SlotRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM appointment").Scan(&n)
	return n, err
}

// InsertBulk inserts slots in one multi-row statement.  Only date, time and
// is_available are written; client fields start NULL.  A slot that already
// exists fails the whole statement with ErrConflict.
func (r *SlotRepo) InsertBulk(ctx context.Context, slots []model.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("INSERT INTO appointment (date, time, is_available) VALUES ")
	args := make([]interface{}, 0, len(slots)*3)
	for i, s := range slots {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?)")
		args = append(args, s.Date, s.Time, s.IsAvailable)
	}
	if _, err := r.db.ExecContext(ctx, b.String(), args...); err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// ListAvailable returns the bookable times of date as HH:MM, ascending.
func (r *SlotRepo) ListAvailable(ctx context.Context, date string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT TIME_FORMAT(time, '%H:%i') FROM appointment
         WHERE date = ? AND is_available = 1 AND client_name IS NULL
         ORDER BY time`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Claim binds the booking to its slot if the slot is still bookable.  The
// WHERE clause re-checks the precondition at update time, so of two
// concurrent claims exactly one sees an affected row.  false means the slot
// is booked, blocked or missing.
func (r *SlotRepo) Claim(ctx context.Context, b model.Booking) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE appointment
         SET is_available = 0, client_name = ?, email = ?, service = ?, message = ?
         WHERE date = ? AND time = ? AND is_available = 1 AND client_name IS NULL`,
		b.Name, b.Email, b.Service, b.Message, b.Date, b.Time)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SetAvailability toggles a slot.  Making a slot available clears the client
// fields and creates the row when it does not exist.  Making it unavailable
// only updates an existing row; a missing row stays missing.
func (r *SlotRepo) SetAvailability(ctx context.Context, date, tm string, available bool) error {
	if available {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO appointment (date, time, is_available) VALUES (?, ?, 1)
             ON DUPLICATE KEY UPDATE is_available = 1, client_name = NULL, email = NULL, service = NULL, message = NULL`,
			date, tm)
		return err
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE appointment SET is_available = 0 WHERE date = ? AND time = ?", date, tm)
	return err
}

// Get returns one slot or ErrNotFound.
func (r *SlotRepo) Get(ctx context.Context, date, tm string) (model.Slot, error) {
	rows, err := r.db.QueryContext(ctx, slotSelect+" WHERE date = ? AND time = ?", date, tm)
	if err != nil {
		return model.Slot{}, err
	}
	defer rows.Close()
	slots, err := scanSlots(rows)
	if err != nil {
		return model.Slot{}, err
	}
	if len(slots) == 0 {
		return model.Slot{}, ErrNotFound
	}
	return slots[0], nil
}

// ListBooked returns every slot bound to a client, by date and time.
func (r *SlotRepo) ListBooked(ctx context.Context) ([]model.Slot, error) {
	rows, err := r.db.QueryContext(ctx, slotSelect+" WHERE client_name IS NOT NULL ORDER BY date, time")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSlots(rows)
}

const slotSelect = `SELECT DATE_FORMAT(date, '%Y-%m-%d'), TIME_FORMAT(time, '%H:%i'),
       is_available, client_name, email, service, message
       FROM appointment`

func scanSlots(rows *sql.Rows) ([]model.Slot, error) {
	out := []model.Slot{}
	for rows.Next() {
		var s model.Slot
		var name, email, service, message sql.NullString
		if err := rows.Scan(&s.Date, &s.Time, &s.IsAvailable, &name, &email, &service, &message); err != nil {
			return nil, err
		}
		s.ClientName = nullString(name)
		s.Email = nullString(email)
		s.Service = nullString(service)
		s.Message = nullString(message)
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
