package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/kyungh/bulletin-board/internal/utils"
)

// Member roles. Every new signup gets RoleUser; RoleAdmin is assigned out
// of band and unlocks the member administration endpoints.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Member mirrors the 'members' table. RefreshHash holds the SHA-256 hash
// of the member's single live refresh token, or is invalid when the member
// is logged out of token mode.
type Member struct {
	ID           uint64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	RefreshHash  sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MemberPatch is a typed partial update: each field is either present
// (non-nil) or absent. Fields are applied one by one against the loaded
// row, never assembled into dynamic SQL.
type MemberPatch struct {
	Name     *string
	Email    *string
	Password *string
}

// Apply mutates m in place with the present fields. A present password is
// re-hashed with the given bcrypt cost; an absent one leaves the stored
// hash untouched. Apply does not check email uniqueness; that stays with
// the store which can see other rows.
func (p MemberPatch) Apply(m *Member, cost int) error {
	if p.Name != nil {
		m.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		m.Email = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	if p.Password != nil {
		hash, err := utils.HashPassword(*p.Password, cost)
		if err != nil {
			return err
		}
		m.PasswordHash = hash
	}
	return nil
}

type MemberRepo struct{ DB *sql.DB }

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{DB: db} }

const memberCols = "id, name, email, password_hash, role, refresh_hash, created_at, updated_at"

func scanMember(row *sql.Row) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.PasswordHash, &m.Role,
		&m.RefreshHash, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// Create hashes the password and inserts a new member with RoleUser.
// It returns ErrEmailExists on a duplicate email and
// utils.ErrPasswordTooLong when the password exceeds the bcrypt limit.
func (r *MemberRepo) Create(ctx context.Context, name, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO members (name, email, password_hash, role) VALUES (?,?,?,?)",
		strings.TrimSpace(name), email, hash, RoleUser)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Verify checks email/password and returns the member on success. Unknown
// email and wrong password both come back as ErrInvalidCredentials.
func (r *MemberRepo) Verify(ctx context.Context, email, password string) (Member, error) {
	m, err := r.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return Member{}, ErrInvalidCredentials
		}
		return Member{}, err
	}
	if !utils.VerifyPassword(m.PasswordHash, password) {
		return Member{}, ErrInvalidCredentials
	}
	return m, nil
}

// GetByEmail fetches a member by normalized email.
func (r *MemberRepo) GetByEmail(ctx context.Context, email string) (Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	m, err := scanMember(r.DB.QueryRowContext(ctx,
		"SELECT "+memberCols+" FROM members WHERE email=? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, ErrMemberNotFound
	}
	return m, err
}

// GetByID fetches a member by id.
func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (Member, error) {
	m, err := scanMember(r.DB.QueryRowContext(ctx,
		"SELECT "+memberCols+" FROM members WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, ErrMemberNotFound
	}
	return m, err
}

// List returns all members ordered by id. Password hashes stay in the
// struct; handlers decide what to expose.
func (r *MemberRepo) List(ctx context.Context) ([]Member, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+memberCols+" FROM members ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.PasswordHash, &m.Role,
			&m.RefreshHash, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update loads the member, applies the patch field by field and writes the
// row back. When the patch changes the email, uniqueness is re-checked
// against other members before the write; the unique index backstops races.
func (r *MemberRepo) Update(ctx context.Context, id uint64, patch MemberPatch, cost int) (Member, error) {
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return Member{}, err
	}
	oldEmail := m.Email
	if err := patch.Apply(&m, cost); err != nil {
		return Member{}, err
	}
	if m.Email != oldEmail {
		var other uint64
		err := r.DB.QueryRowContext(ctx,
			"SELECT id FROM members WHERE email=? AND id<>? LIMIT 1", m.Email, id).Scan(&other)
		if err == nil {
			return Member{}, ErrEmailExists
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return Member{}, err
		}
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE members SET name=?, email=?, password_hash=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		m.Name, m.Email, m.PasswordHash, id)
	if err != nil {
		if isDuplicateKey(err) {
			return Member{}, ErrEmailExists
		}
		return Member{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a member after re-confirming their password. Posts owned
// by the member are removed by the ON DELETE CASCADE on posts.member_id;
// their attached files are not cleaned up here (known gap, see DESIGN.md).
func (r *MemberRepo) Delete(ctx context.Context, id uint64, password string) error {
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !utils.VerifyPassword(m.PasswordHash, password) {
		return ErrInvalidCredentials
	}
	_, err = r.DB.ExecContext(ctx, "DELETE FROM members WHERE id=?", id)
	return err
}

// DeleteByID removes a member without password re-confirmation. Reserved
// for the admin surface; the caller's role is checked at the route.
func (r *MemberRepo) DeleteByID(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM members WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// SetRefreshHash stores the hash of the member's current refresh token,
// replacing any previous value. Overwriting invalidates every refresh
// token issued before this one.
func (r *MemberRepo) SetRefreshHash(ctx context.Context, id uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE members SET refresh_hash=? WHERE id=?", hash, id)
	return err
}

// ClearRefreshHash drops the stored refresh hash so no refresh token can
// be redeemed until the next login.
func (r *MemberRepo) ClearRefreshHash(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE members SET refresh_hash=NULL WHERE id=?", id)
	return err
}

// GetByRefreshHash finds the member currently holding the given refresh
// token hash. ErrMemberNotFound means the token was revoked or replaced.
func (r *MemberRepo) GetByRefreshHash(ctx context.Context, hash string) (Member, error) {
	m, err := scanMember(r.DB.QueryRowContext(ctx,
		"SELECT "+memberCols+" FROM members WHERE refresh_hash=? LIMIT 1", hash))
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, ErrMemberNotFound
	}
	return m, err
}

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (errno 1062) from a unique index violation.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
