package sqlite

import (
	"context"
	"time"

	"github.com/silverbridge/backend/internal/auth/domain"
)

type revocationsRepo struct {
	db dbtx
}

// InsertRevocation is a single conditional write: the primary key on jti
// makes concurrent inserts of one jti serialise, and only the statement that
// actually created the row sees one affected row.
func (r *revocationsRepo) InsertRevocation(ctx context.Context, e domain.RevocationEntry) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO revoked_tokens (jti, subject, reason, revoked_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (jti) DO NOTHING`,
		e.JTI, e.Subject, string(e.Reason), toUnix(e.RevokedAt), toUnix(e.ExpiresAt),
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *revocationsRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

func (r *revocationsRepo) GetRevocation(ctx context.Context, jti string) (domain.RevocationEntry, error) {
	var (
		e                    domain.RevocationEntry
		reason               string
		revokedAt, expiresAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT jti, subject, reason, revoked_at, expires_at FROM revoked_tokens WHERE jti = ?`, jti,
	).Scan(&e.JTI, &e.Subject, &reason, &revokedAt, &expiresAt)
	if err != nil {
		return domain.RevocationEntry{}, mapNotFound(err)
	}

	e.Reason = domain.RevocationReason(reason)
	e.RevokedAt = fromUnix(revokedAt)
	e.ExpiresAt = fromUnix(expiresAt)
	return e, nil
}

func (r *revocationsRepo) DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= ?`, toUnix(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
