package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/silverbridge/backend/internal/auth/domain"
	"github.com/silverbridge/backend/internal/auth/store"
)

const birthLayout = "2006-01-02"

const userColumns = `id, name, phone_number, password_hash, role, birth, region, kakao_id, social, created_at, updated_at`

type usersRepo struct {
	db dbtx
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByPhoneNumber(ctx context.Context, phone string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = ?`, phone)
	return scanUser(row)
}

func (r *usersRepo) GetUserByKakaoID(ctx context.Context, kakaoID int64) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE kakao_id = ?`, kakaoID)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.PhoneNumber, u.PasswordHash, string(u.Role),
		birthNull(u.Birth), mapStringNull(u.Region), kakaoNull(u.KakaoID), u.Social,
		toUnix(u.CreatedAt), toUnix(u.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateUser(ctx context.Context, u domain.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		    SET name = ?, birth = ?, region = ?, kakao_id = ?, social = ?, updated_at = ?
		  WHERE id = ?`,
		u.Name, birthNull(u.Birth), mapStringNull(u.Region), kakaoNull(u.KakaoID), u.Social,
		toUnix(u.UpdatedAt), u.ID,
	)
	if err != nil {
		return mapConstraint(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func birthNull(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(birthLayout), Valid: true}
}

func kakaoNull(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func (r *usersRepo) ExistsByPhoneNumber(ctx context.Context, phone string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE phone_number = ?)`, phone,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u                    domain.User
		role                 string
		birth, region        sql.NullString
		kakaoID              sql.NullInt64
		createdAt, updatedAt int64
	)
	err := row.Scan(&u.ID, &u.Name, &u.PhoneNumber, &u.PasswordHash, &role, &birth, &region,
		&kakaoID, &u.Social, &createdAt, &updatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Role = domain.Role(role)
	u.Region = mapNullString(region)
	if kakaoID.Valid {
		u.KakaoID = &kakaoID.Int64
	}
	u.CreatedAt = fromUnix(createdAt)
	u.UpdatedAt = fromUnix(updatedAt)
	if birth.Valid {
		if t, err := time.Parse(birthLayout, birth.String); err == nil {
			u.Birth = &t
		}
	}
	return u, nil
}
