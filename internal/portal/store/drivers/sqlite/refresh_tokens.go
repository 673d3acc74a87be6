package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Raymond-engr/DRID-Research/internal/portal/domain"
)

type refreshTokensRepo struct {
	q   sqlx.ExtContext
	now func() time.Time
}

type refreshTokenRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	AMR       string    `db:"amr"`
	ExpiresAt time.Time `db:"expires_at"`
	Revoked   bool         `db:"revoked"`
	RevokedAt sql.NullTime `db:"revoked_at"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	now := r.now().UTC()
	_, err := sqlx.NamedExecContext(ctx, r.q, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, amr, expires_at, revoked, created_at, updated_at)
		VALUES (:id, :user_id, :token_hash, :amr, :expires_at, 0, :created_at, :updated_at)`,
		refreshTokenRow{
			ID:        t.ID,
			UserID:    t.UserID,
			TokenHash: t.TokenHash,
			AMR:       strings.Join(t.AMR, " "),
			ExpiresAt: t.ExpiresAt.UTC(),
			CreatedAt: now,
			UpdatedAt: now,
		})
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	var row refreshTokenRow
	err := sqlx.GetContext(ctx, r.q, &row, `
		SELECT id, user_id, token_hash, amr, expires_at, revoked, revoked_at, created_at, updated_at
		FROM refresh_tokens WHERE token_hash = ?`, hash)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	var revokedAt *time.Time
	if row.RevokedAt.Valid {
		t := row.RevokedAt.Time.UTC()
		revokedAt = &t
	}
	return domain.RefreshToken{
		ID:        row.ID,
		UserID:    row.UserID,
		TokenHash: row.TokenHash,
		AMR:       strings.Fields(row.AMR),
		ExpiresAt: row.ExpiresAt.UTC(),
		Revoked:   row.Revoked,
		RevokedAt: revokedAt,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, hash string, at time.Time) error {
	return expectOne(r.q.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = 1, revoked_at = ?, updated_at = ?
		WHERE token_hash = ? AND revoked = 0`,
		at.UTC(), r.now().UTC(), hash))
}

func (r *refreshTokensRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	now := r.now().UTC()
	_, err := r.q.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked = 1, revoked_at = ?, updated_at = ?
		WHERE user_id = ? AND revoked = 0`,
		now, now, userID)
	return err
}

func (r *refreshTokensRepo) DeleteStaleRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE revoked = 1 OR expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
