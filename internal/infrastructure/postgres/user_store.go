package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/entity"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/repository"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/apperror"
)

const uniqueViolation = "23505"

const selectUser = `
	SELECT id, email, first_name, last_name, phone, latitude, longitude, birthdate, about_me,
	       password_salt, password_hash, last_login, profile_image_name,
	       created_at, updated_at, deleted_at, is_deleted, version
	FROM users`

// UserStore is the Postgres write store. Updates are optimistic on the version column.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) Insert(ctx context.Context, u *entity.User) error {
	snap := u.Snapshot()
	var version int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, first_name, last_name, phone, latitude, longitude, birthdate, about_me,
		                   password_salt, password_hash, last_login, profile_image_name,
		                   created_at, updated_at, deleted_at, is_deleted, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, 1)
		RETURNING version
	`, snap.ID, snap.Email, snap.FirstName, snap.LastName, snap.Phone, snap.Latitude, snap.Longitude,
		snap.Birthdate, snap.AboutMe, snap.PasswordSalt, snap.PasswordHash, snap.LastLogin,
		snap.ProfileImageName, snap.CreatedAt, snap.UpdatedAt, snap.DeletedAt, snap.IsDeleted,
	).Scan(&version)
	if err != nil {
		return mapWriteError("insert user", err)
	}
	u.SetVersion(version)
	return nil
}

// Update writes the user if the stored version still equals the aggregate's.
func (s *UserStore) Update(ctx context.Context, u *entity.User) error {
	snap := u.Snapshot()
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return apperror.Transient("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var version int64
	err = tx.QueryRow(ctx, `
		UPDATE users
		SET email = $2, first_name = $3, last_name = $4, phone = $5, latitude = $6, longitude = $7,
		    birthdate = $8, about_me = $9, password_salt = $10, password_hash = $11, last_login = $12,
		    profile_image_name = $13, updated_at = $14, deleted_at = $15, is_deleted = $16,
		    version = version + 1
		WHERE id = $1 AND version = $17
		RETURNING version
	`, snap.ID, snap.Email, snap.FirstName, snap.LastName, snap.Phone, snap.Latitude, snap.Longitude,
		snap.Birthdate, snap.AboutMe, snap.PasswordSalt, snap.PasswordHash, snap.LastLogin,
		snap.ProfileImageName, snap.UpdatedAt, snap.DeletedAt, snap.IsDeleted, snap.Version,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if qErr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, snap.ID).Scan(&exists); qErr != nil {
			return mapWriteError("check user", qErr)
		}
		if !exists {
			return repository.ErrUserNotFound
		}
		return repository.ErrVersionConflict
	}
	if err != nil {
		return mapWriteError("update user", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapWriteError("commit user", err)
	}
	u.SetVersion(version)
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id string, includeDeleted bool) (*entity.User, error) {
	if _, err := entity.ParseUserID(id); err != nil {
		return nil, repository.ErrUserNotFound
	}
	return s.findOne(ctx, selectUser+` WHERE id = $1 AND ($2 OR is_deleted = FALSE)`, id, includeDeleted)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string, includeDeleted bool) (*entity.User, error) {
	e, err := entity.NewEmail(email)
	if err != nil {
		return nil, repository.ErrUserNotFound
	}
	return s.findOne(ctx, selectUser+` WHERE email = $1 AND ($2 OR is_deleted = FALSE)`, e.String(), includeDeleted)
}

func (s *UserStore) findOne(ctx context.Context, query string, args ...any) (*entity.User, error) {
	var snap entity.UserSnapshot
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&snap.ID, &snap.Email, &snap.FirstName, &snap.LastName, &snap.Phone, &snap.Latitude, &snap.Longitude,
		&snap.Birthdate, &snap.AboutMe, &snap.PasswordSalt, &snap.PasswordHash, &snap.LastLogin,
		&snap.ProfileImageName, &snap.CreatedAt, &snap.UpdatedAt, &snap.DeletedAt, &snap.IsDeleted, &snap.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, apperror.Transient("load user", err)
	}
	return entity.ReconstituteUser(snap)
}

// mapWriteError turns unique violations into the store's Conflict errors.
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case "users_email_key":
			return repository.ErrEmailTaken
		case "users_phone_key":
			return repository.ErrPhoneTaken
		default:
			return repository.ErrVersionConflict
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperror.Transient(fmt.Sprintf("%s failed", op), err)
}

var _ repository.UserStore = (*UserStore)(nil)
