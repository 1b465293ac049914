package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/silverbridge/backend/internal/auth/domain"
	"github.com/silverbridge/backend/internal/auth/store"
)

type phoneVerificationsRepo struct {
	db dbtx
}

func (r *phoneVerificationsRepo) UpsertPhoneVerification(ctx context.Context, v domain.PhoneVerification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO phone_verifications (phone_number, secret, attempts, expires_at, verified_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (phone_number) DO UPDATE SET
			secret      = excluded.secret,
			attempts    = excluded.attempts,
			expires_at  = excluded.expires_at,
			verified_at = excluded.verified_at,
			created_at  = excluded.created_at`,
		v.PhoneNumber, v.Secret, v.Attempts, toUnix(v.ExpiresAt), mapOptionalUnix(v.VerifiedAt), toUnix(v.CreatedAt),
	)
	return err
}

func (r *phoneVerificationsRepo) GetPhoneVerification(ctx context.Context, phone string) (domain.PhoneVerification, error) {
	var (
		v                    domain.PhoneVerification
		expiresAt, createdAt int64
		verifiedAt           sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT phone_number, secret, attempts, expires_at, verified_at, created_at
		FROM phone_verifications WHERE phone_number = ?`, phone,
	).Scan(&v.PhoneNumber, &v.Secret, &v.Attempts, &expiresAt, &verifiedAt, &createdAt)
	if err != nil {
		return domain.PhoneVerification{}, mapNotFound(err)
	}

	v.ExpiresAt = fromUnix(expiresAt)
	v.VerifiedAt = mapNullUnixPtr(verifiedAt)
	v.CreatedAt = fromUnix(createdAt)
	return v, nil
}

func (r *phoneVerificationsRepo) IncrementAttempts(ctx context.Context, phone string) (int, error) {
	var attempts int
	err := r.db.QueryRowContext(ctx,
		`UPDATE phone_verifications SET attempts = attempts + 1 WHERE phone_number = ? RETURNING attempts`, phone,
	).Scan(&attempts)
	if err != nil {
		return 0, mapNotFound(err)
	}
	return attempts, nil
}

func (r *phoneVerificationsRepo) MarkVerified(ctx context.Context, phone string, at, validUntil time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE phone_verifications SET verified_at = ?, expires_at = ? WHERE phone_number = ?`,
		toUnix(at), toUnix(validUntil), phone,
	)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

func (r *phoneVerificationsRepo) DeletePhoneVerification(ctx context.Context, phone string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM phone_verifications WHERE phone_number = ?`, phone)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

func (r *phoneVerificationsRepo) DeleteExpiredPhoneVerifications(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM phone_verifications WHERE expires_at <= ?`, toUnix(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
