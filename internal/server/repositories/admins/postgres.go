package admins

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/dbx"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
)

const columns = `id, first_name, last_name, display_name, email, password, salt, profile_image_urls,
	provider, roles, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Admin) error {
	if a.ID == "" {
		a.ID = models.NewID()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	images, err := json.Marshal(a.ProfileImageURLs)
	if err != nil {
		return err
	}
	roles, err := json.Marshal(a.Roles)
	if err != nil {
		return err
	}

	query :=
		`INSERT INTO admins (` + columns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.db.ExecContext(ctx, query, a.ID, a.FirstName, a.LastName, a.DisplayName, a.Email,
		a.Password, a.Salt, string(images), a.Provider, string(roles), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if field, ok := dbx.UniqueViolation(err); ok {
			return &common.DuplicateKeyError{Field: field, Err: err}
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Admin, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM admins WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM admins WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *PostgresRepository) CountByEmail(ctx context.Context, email string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins WHERE email = $1`, strings.ToLower(email)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Admin, error) {
	a := &models.Admin{}
	var images, roles []byte

	err := r.db.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.FirstName, &a.LastName, &a.DisplayName,
		&a.Email, &a.Password, &a.Salt, &images, &a.Provider, &roles, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := json.Unmarshal(images, &a.ProfileImageURLs); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := json.Unmarshal(roles, &a.Roles); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}
