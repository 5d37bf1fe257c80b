package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"catalog-service/internal/domain"
)

// Every photo mutation first locks the owning listing row, so concurrent
// mutations of the same listing run one after another and the partial unique
// index ux_listing_photos_main never sees two main rows.

const photoColumns = `id, listing_id, url, sort_order, is_main, created_at`

// --- PhotoStorer Implementation ---

func (s *PostgresStore) ListPhotos(ctx context.Context, listingID uuid.UUID) ([]domain.ListingPhoto, error) {
	query := `
		SELECT id, listing_id, url, sort_order, is_main, created_at
		FROM listing_photos
		WHERE listing_id = $1
		ORDER BY is_main DESC, sort_order ASC;
	`
	photos := []domain.ListingPhoto{}
	if err := s.db.SelectContext(ctx, &photos, query, listingID); err != nil {
		return nil, fmt.Errorf("store: ListPhotos failed to query photos: %w", err)
	}
	return photos, nil
}

// AddPhoto appends a photo after the current last one. The first photo of a
// listing always becomes main; otherwise it becomes main only when requested.
func (s *PostgresStore) AddPhoto(ctx context.Context, listingID uuid.UUID, url string, requestedMain bool) (*domain.ListingPhoto, error) {
	var created domain.ListingPhoto
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockListing(ctx, tx, listingID); err != nil {
			return err
		}

		var stats struct {
			MaxSort int `db:"max_sort"`
			Total   int `db:"total"`
		}
		if err := tx.GetContext(ctx, &stats, `
			SELECT COALESCE(MAX(sort_order), 0) AS max_sort, COUNT(*) AS total
			FROM listing_photos
			WHERE listing_id = $1;
		`, listingID); err != nil {
			return fmt.Errorf("store: AddPhoto failed to read photo stats: %w", err)
		}

		makeMain := requestedMain || stats.Total == 0
		if makeMain && stats.Total > 0 {
			if _, err := tx.ExecContext(ctx, `UPDATE listing_photos SET is_main = FALSE WHERE listing_id = $1 AND is_main;`, listingID); err != nil {
				return fmt.Errorf("store: AddPhoto failed to clear main photo: %w", err)
			}
		}

		query := `
			INSERT INTO listing_photos (id, listing_id, url, sort_order, is_main)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING ` + photoColumns + `;
		`
		if err := tx.GetContext(ctx, &created, query, uuid.New(), listingID, url, stats.MaxSort+1, makeMain); err != nil {
			return translatePQError(fmt.Errorf("store: AddPhoto failed to insert: %w", err), "photo")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// SetMainPhoto makes photoID the only main photo of the listing.
// The old main is cleared before the new one is set.
func (s *PostgresStore) SetMainPhoto(ctx context.Context, listingID, photoID uuid.UUID) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockListing(ctx, tx, listingID); err != nil {
			return err
		}

		var isMain bool
		if err := tx.GetContext(ctx, &isMain, `SELECT is_main FROM listing_photos WHERE id = $1 AND listing_id = $2;`, photoID, listingID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NotFound("photo", photoID)
			}
			return fmt.Errorf("store: SetMainPhoto failed to read photo: %w", err)
		}
		if isMain {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `UPDATE listing_photos SET is_main = FALSE WHERE listing_id = $1 AND is_main AND id <> $2;`, listingID, photoID); err != nil {
			return fmt.Errorf("store: SetMainPhoto failed to clear main photo: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE listing_photos SET is_main = TRUE WHERE id = $1;`, photoID); err != nil {
			return translatePQError(fmt.Errorf("store: SetMainPhoto failed to set main photo: %w", err), "photo")
		}
		return nil
	})
}

// DeletePhoto removes the photo row. When it was the main photo, the remaining
// photo with the lowest sort_order is promoted.
func (s *PostgresStore) DeletePhoto(ctx context.Context, listingID, photoID uuid.UUID) (*domain.ListingPhoto, error) {
	var deleted domain.ListingPhoto
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockListing(ctx, tx, listingID); err != nil {
			return err
		}

		query := `DELETE FROM listing_photos WHERE id = $1 AND listing_id = $2 RETURNING ` + photoColumns + `;`
		if err := tx.GetContext(ctx, &deleted, query, photoID, listingID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NotFound("photo", photoID)
			}
			return fmt.Errorf("store: DeletePhoto failed to delete: %w", err)
		}
		if !deleted.IsMain {
			return nil
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE listing_photos SET is_main = TRUE
			WHERE id = (
				SELECT id FROM listing_photos
				WHERE listing_id = $1
				ORDER BY sort_order ASC, created_at ASC
				LIMIT 1
			);
		`, listingID)
		if err != nil {
			return fmt.Errorf("store: DeletePhoto failed to promote main photo: %w", err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			s.logger.Debug("Promoted new main photo", zap.String("listing_id", listingID.String()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}
