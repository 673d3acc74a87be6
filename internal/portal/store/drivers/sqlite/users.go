package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Raymond-engr/DRID-Research/internal/portal/domain"
	"github.com/Raymond-engr/DRID-Research/internal/portal/store"
)

type usersRepo struct {
	q   sqlx.ExtContext
	now func() time.Time
}

type userRow struct {
	ID              string         `db:"id"`
	Email           string         `db:"email"`
	Name            string         `db:"name"`
	Role            string         `db:"role"`
	PasswordHash    string         `db:"password_hash"`
	IsActive        bool           `db:"is_active"`
	Faculty         string         `db:"faculty"`
	Bio             string         `db:"bio"`
	Title           string         `db:"title"`
	ProfilePicture  string         `db:"profile_picture"`
	InviteTokenHash sql.NullString `db:"invite_token_hash"`
	InviteExpiresAt sql.NullTime   `db:"invite_expires_at"`
	MFASecret       sql.NullString `db:"mfa_secret"`
	MFAEnabledAt    sql.NullTime   `db:"mfa_enabled_at"`
	LastLoginAt     sql.NullTime   `db:"last_login_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

const userColumns = `id, email, name, role, password_hash, is_active, faculty, bio, title,
	profile_picture, invite_token_hash, invite_expires_at, mfa_secret, mfa_enabled_at,
	last_login_at, created_at, updated_at`

func (row userRow) toDomain() (domain.User, error) {
	role, err := domain.ParseRole(row.Role)
	if err != nil {
		return domain.User{}, fmt.Errorf("user %s: %w", row.ID, err)
	}
	return domain.User{
		ID:              row.ID,
		Email:           row.Email,
		Name:            row.Name,
		Role:            role,
		PasswordHash:    row.PasswordHash,
		IsActive:        row.IsActive,
		Faculty:         row.Faculty,
		Bio:             row.Bio,
		Title:           row.Title,
		ProfilePicture:  row.ProfilePicture,
		InviteTokenHash: row.InviteTokenHash.String,
		InviteExpiresAt: timePtr(row.InviteExpiresAt),
		MFASecret:       stringPtr(row.MFASecret),
		MFAEnabledAt:    timePtr(row.MFAEnabledAt),
		LastLoginAt:     timePtr(row.LastLoginAt),
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}, nil
}

func (r *usersRepo) getOne(ctx context.Context, where string, arg any) (domain.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return row.toDomain()
}

func (r *usersRepo) list(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	var rows []userRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		u, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.getOne(ctx, `id = ?`, id)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, `email = ?`, strings.TrimSpace(email))
}

func (r *usersRepo) GetUserByInviteTokenHash(ctx context.Context, hash string) (domain.User, error) {
	return r.getOne(ctx, `invite_token_hash = ? AND is_active = 0`, hash)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := r.now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}

	_, err := sqlx.NamedExecContext(ctx, r.q, `
		INSERT INTO users (
			id, email, name, role, password_hash, is_active, faculty, bio, title,
			profile_picture, invite_token_hash, invite_expires_at, created_at, updated_at
		) VALUES (
			:id, :email, :name, :role, :password_hash, :is_active, :faculty, :bio, :title,
			:profile_picture, :invite_token_hash, :invite_expires_at, :created_at, :updated_at
		)`,
		userRow{
			ID:              u.ID,
			Email:           strings.ToLower(strings.TrimSpace(u.Email)),
			Name:            u.Name,
			Role:            u.Role.String(),
			PasswordHash:    u.PasswordHash,
			IsActive:        u.IsActive,
			Faculty:         u.Faculty,
			Bio:             u.Bio,
			Title:           u.Title,
			ProfilePicture:  u.ProfilePicture,
			InviteTokenHash: nullString(u.InviteTokenHash),
			InviteExpiresAt: nullTime(u.InviteExpiresAt),
			CreatedAt:       u.CreatedAt.UTC(),
			UpdatedAt:       now,
		})
	return mapConstraint(err)
}

func (r *usersRepo) ListUsers(ctx context.Context, f store.UserFilter) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1 = 1`
	var args []any
	if f.Role != nil {
		query += ` AND role = ?`
		args = append(args, f.Role.String())
	}
	if f.Active != nil {
		query += ` AND is_active = ?`
		args = append(args, *f.Active)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, args...)
}

func (r *usersRepo) ListInvitations(ctx context.Context) ([]domain.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users
		WHERE is_active = 0 AND invite_token_hash IS NOT NULL AND invite_expires_at IS NOT NULL
		ORDER BY created_at DESC, id DESC`)
}

func (r *usersRepo) ReplaceInviteToken(ctx context.Context, id, hash string, expiresAt time.Time) error {
	return expectOne(r.q.ExecContext(ctx, `
		UPDATE users SET invite_token_hash = ?, invite_expires_at = ?, updated_at = ?
		WHERE id = ? AND is_active = 0 AND invite_token_hash IS NOT NULL`,
		hash, expiresAt.UTC(), r.now().UTC(), id))
}

func (r *usersRepo) ActivateProfile(ctx context.Context, id, inviteHash string, now time.Time, p store.ProfileUpdate) error {
	return expectOne(r.q.ExecContext(ctx, `
		UPDATE users SET
			name = ?, password_hash = ?, faculty = ?, bio = ?, title = ?, profile_picture = ?,
			is_active = 1, invite_token_hash = NULL, invite_expires_at = NULL, updated_at = ?
		WHERE id = ? AND is_active = 0 AND invite_token_hash = ? AND invite_expires_at > ?`,
		p.Name, p.PasswordHash, p.Faculty, p.Bio, p.Title, p.ProfilePicture, r.now().UTC(),
		id, inviteHash, now.UTC()))
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return expectOne(r.q.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, r.now().UTC(), id))
}

func (r *usersRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return expectOne(r.q.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`, at.UTC(), id))
}

func (r *usersRepo) DeleteUser(ctx context.Context, id string) error {
	return expectOne(r.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id))
}

func (r *usersRepo) DeleteInvitation(ctx context.Context, id string) error {
	return expectOne(r.q.ExecContext(ctx, `
		DELETE FROM users
		WHERE id = ? AND role = ? AND is_active = 0 AND invite_token_hash IS NOT NULL`,
		id, domain.RoleResearcher.String()))
}

func (r *usersRepo) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n,
		`SELECT COUNT(*) FROM users WHERE role = ? AND is_active = 1`, role.String())
	return n, err
}

func (r *usersRepo) UpdateMFASecret(ctx context.Context, id, secret string) error {
	return expectOne(r.q.ExecContext(ctx,
		`UPDATE users SET mfa_secret = ?, mfa_enabled_at = NULL, updated_at = ? WHERE id = ?`,
		secret, r.now().UTC(), id))
}

func (r *usersRepo) EnableMFA(ctx context.Context, id string, at time.Time) error {
	return expectOne(r.q.ExecContext(ctx,
		`UPDATE users SET mfa_enabled_at = ?, updated_at = ? WHERE id = ? AND mfa_secret IS NOT NULL`,
		at.UTC(), r.now().UTC(), id))
}

func (r *usersRepo) DisableMFA(ctx context.Context, id string) error {
	return expectOne(r.q.ExecContext(ctx,
		`UPDATE users SET mfa_secret = NULL, mfa_enabled_at = NULL, updated_at = ? WHERE id = ?`,
		r.now().UTC(), id))
}
