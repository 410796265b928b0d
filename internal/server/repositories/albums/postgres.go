package albums

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/meanstack/internal/dbx"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, album *models.Album) error {
	if album.ID == "" {
		album.ID = models.NewID()
	}
	if album.Created.IsZero() {
		album.Created = time.Now().UTC()
	}

	images, err := json.Marshal(album.Images)
	if err != nil {
		return err
	}

	query :=
		`INSERT INTO albums (id, user_id, images_url, created)
		 VALUES ($1, $2, $3, $4)`

	if _, err := r.db.ExecContext(ctx, query, album.ID, album.UserID, string(images), album.Created); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Album, error) {
	query :=
		`SELECT id, user_id, images_url, created FROM albums
		 WHERE user_id = $1
		 ORDER BY created DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Album, 0)
	for rows.Next() {
		a := &models.Album{}
		var images []byte
		if err := rows.Scan(&a.ID, &a.UserID, &images, &a.Created); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if err := json.Unmarshal(images, &a.Images); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
