package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/dbx"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
)

const columns = `id, first_name, last_name, display_name, email, document, phone, city, state,
	password, salt, profile_image_urls, provider, provider_data, additional_providers_data, roles,
	addresses, reset_password_token, reset_password_expires, updated, created`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = models.NewID()
	}
	if user.Created.IsZero() {
		user.Created = time.Now().UTC()
	}

	args, err := userArgs(user)
	if err != nil {
		return err
	}

	query :=
		`INSERT INTO users (` + columns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return writeError(err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	args, err := userArgs(user)
	if err != nil {
		return err
	}

	query :=
		`UPDATE users SET first_name = $2, last_name = $3, display_name = $4, email = $5, document = $6,
		 phone = $7, city = $8, state = $9, password = $10, salt = $11, profile_image_urls = $12,
		 provider = $13, provider_data = $14, additional_providers_data = $15, roles = $16,
		 addresses = $17, reset_password_token = $18, reset_password_expires = $19, updated = $20
		 WHERE id = $1 AND deleted IS NULL`

	res, err := r.db.ExecContext(ctx, query, args[:20]...)
	if err != nil {
		return writeError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM users WHERE id = $1 AND deleted IS NULL`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM users WHERE email = $1 AND deleted IS NULL`,
		strings.ToLower(strings.TrimSpace(email)))
}

func (r *PostgresRepository) GetByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	return r.getOne(ctx,
		`SELECT `+columns+` FROM users
		 WHERE deleted IS NULL
		   AND ((provider = $1 AND provider_data->>'id' = $2) OR additional_providers_data->$1->>'id' = $2)`,
		provider, providerID)
}

func (r *PostgresRepository) GetByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	return r.getOne(ctx,
		`SELECT `+columns+` FROM users
		 WHERE reset_password_token = $1 AND reset_password_expires > $2 AND deleted IS NULL`,
		token, now)
}

func (r *PostgresRepository) List(ctx context.Context, f Filter, skip, limit int) ([]*models.User, error) {
	where, args := filterClause(f)
	args = append(args, limit, skip)

	query := `SELECT ` + columns + ` FROM users WHERE ` + where +
		` ORDER BY created DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context, f Filter) (int64, error) {
	where, args := filterClause(f)

	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return r.execOne(ctx, `UPDATE users SET deleted = $2 WHERE id = $1 AND deleted IS NULL`, id, at)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func filterClause(f Filter) (string, []any) {
	clauses := []string{"deleted IS NULL"}
	args := make([]any, 0, 4)
	if f.Email != "" {
		args = append(args, strings.ToLower(f.Email))
		clauses = append(clauses, "email = $"+strconv.Itoa(len(args)))
	}
	if f.Role != "" {
		args = append(args, f.Role)
		clauses = append(clauses, "roles @> jsonb_build_array($"+strconv.Itoa(len(args))+"::text)")
	}
	return strings.Join(clauses, " AND "), args
}

func writeError(err error) error {
	if field, ok := dbx.UniqueViolation(err); ok {
		return &common.DuplicateKeyError{Field: field, Err: err}
	}
	return fmt.Errorf("db error: %w", err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	u := &models.User{}
	var images, providerData, additional, roles, addresses []byte

	err := s.Scan(&u.ID, &u.FirstName, &u.LastName, &u.DisplayName, &u.Email, &u.Document, &u.Phone,
		&u.City, &u.State, &u.Password, &u.Salt, &images, &u.Provider, &providerData, &additional,
		&roles, &addresses, &u.ResetPasswordToken, &u.ResetPasswordExpires, &u.Updated, &u.Created)
	if err != nil {
		return nil, err
	}

	for _, f := range []struct {
		raw []byte
		dst any
	}{
		{images, &u.ProfileImageURLs},
		{providerData, &u.ProviderData},
		{additional, &u.AdditionalProvidersData},
		{roles, &u.Roles},
		{addresses, &u.Addresses},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// userArgs returns the column values in the order of columns.
func userArgs(u *models.User) ([]any, error) {
	images, err := json.Marshal(u.ProfileImageURLs)
	if err != nil {
		return nil, err
	}
	providerData, err := jsonOr(u.ProviderData, "{}")
	if err != nil {
		return nil, err
	}
	additional, err := jsonOr(u.AdditionalProvidersData, "{}")
	if err != nil {
		return nil, err
	}
	roles, err := jsonOr(u.Roles, "[]")
	if err != nil {
		return nil, err
	}
	addresses, err := jsonOr(u.Addresses, "[]")
	if err != nil {
		return nil, err
	}

	return []any{
		u.ID, u.FirstName, u.LastName, u.DisplayName, u.Email, u.Document, u.Phone, u.City, u.State,
		u.Password, u.Salt, string(images), u.Provider, providerData, additional, roles, addresses,
		u.ResetPasswordToken, u.ResetPasswordExpires, u.Updated, u.Created,
	}, nil
}

func jsonOr[T any](v T, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}
