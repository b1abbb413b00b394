package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/corvexa/it-services-portal/internal/model"
)

// mysqlDuplicateEntry is the server error number for unique key violations.
const mysqlDuplicateEntry = 1062

// UserRepo reads and writes the users and companies tables.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = "id, first_name, last_name, email, password_hash, role, company_id, is_active, created_at, updated_at"

// NormalizeEmail lower-cases and trims an address before it touches the
// unique index.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u         model.User
		companyID sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.Role, &companyID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if companyID.Valid {
		id := uint64(companyID.Int64)
		u.CompanyID = &id
	}
	return u, nil
}

// CreateCompanyAndUser inserts a company and its first user in one
// transaction.  When the user insert fails the company row is rolled back.
// u.PasswordHash must already be hashed.
func (r *UserRepo) CreateCompanyAndUser(ctx context.Context, c model.Company, u model.User) (companyID, userID uint64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO companies (name, email, phone, address) VALUES (?,?,?,?)",
		strings.TrimSpace(c.Name), nullIfEmpty(NormalizeEmail(c.Email)),
		nullIfEmpty(strings.TrimSpace(c.Phone)), nullIfEmpty(strings.TrimSpace(c.Address)))
	if err != nil {
		return 0, 0, fmt.Errorf("insert company: %w", err)
	}
	cid, err := res.LastInsertId()
	if err != nil {
		return 0, 0, err
	}

	role := u.Role
	if role == "" {
		role = model.RoleClient
	}
	res, err = tx.ExecContext(ctx,
		"INSERT INTO users (first_name, last_name, email, password_hash, role, company_id) VALUES (?,?,?,?,?,?)",
		strings.TrimSpace(u.FirstName), strings.TrimSpace(u.LastName), NormalizeEmail(u.Email),
		u.PasswordHash, role, cid)
	if err != nil {
		if isDuplicate(err) {
			return 0, 0, ErrEmailExists
		}
		return 0, 0, fmt.Errorf("insert user: %w", err)
	}
	uid, err := res.LastInsertId()
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	committed = true
	return uint64(cid), uint64(uid), nil
}

// ListClients returns every client account with its company name, newest
// first.
func (r *UserRepo) ListClients(ctx context.Context) ([]model.ClientSummary, error) {
	const q = `SELECT u.id, u.first_name, u.last_name, u.email, u.is_active, u.company_id, c.name
               FROM users u
               LEFT JOIN companies c ON c.id = u.company_id
               WHERE u.role = ?
               ORDER BY u.created_at DESC, u.id DESC`
	rows, err := r.db.QueryContext(ctx, q, model.RoleClient)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ClientSummary{}
	for rows.Next() {
		var (
			s           model.ClientSummary
			companyID   sql.NullInt64
			companyName sql.NullString
		)
		if err := rows.Scan(&s.UserID, &s.FirstName, &s.LastName, &s.Email, &s.IsActive, &companyID, &companyName); err != nil {
			return nil, err
		}
		if companyID.Valid {
			id := uint64(companyID.Int64)
			s.CompanyID = &id
		}
		if companyName.Valid {
			name := companyName.String
			s.CompanyName = &name
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
