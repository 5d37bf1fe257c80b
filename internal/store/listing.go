package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"catalog-service/internal/domain"
)

const listingColumns = `id, owner_user_id, category_id, city_id, title, price, description, is_published, created_at, updated_at`

type attributeValueRow struct {
	ListingID   uuid.UUID            `db:"listing_id"`
	AttributeID uuid.UUID            `db:"attribute_id"`
	Type        domain.AttributeType `db:"type"`
	domain.ValueColumns
}

// --- ListingStorer Implementation ---

func (s *PostgresStore) CreateListing(ctx context.Context, listing *domain.Listing, values []domain.ListingAttributeValue) (*domain.Listing, error) {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	var created domain.Listing
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO listings (id, owner_user_id, category_id, city_id, title, price, description, is_published)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING ` + listingColumns + `;
		`
		if err := tx.GetContext(ctx, &created, query,
			listing.ID, listing.OwnerUserID, listing.CategoryID, listing.CityID,
			listing.Title, listing.Price, listing.Description, listing.IsPublished,
		); err != nil {
			return translatePQError(fmt.Errorf("store: CreateListing failed to insert: %w", err), "listing")
		}
		return insertAttributeValues(ctx, tx, created.ID, values)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *PostgresStore) GetListingByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1;`
	var listing domain.Listing
	if err := s.db.GetContext(ctx, &listing, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("listing", id)
		}
		return nil, fmt.Errorf("store: GetListingByID failed to scan row: %w", err)
	}
	return &listing, nil
}

// UpdateListing leaves attribute values untouched when values is nil.
func (s *PostgresStore) UpdateListing(ctx context.Context, listing *domain.Listing, values []domain.ListingAttributeValue) (*domain.Listing, error) {
	var updated domain.Listing
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE listings
			SET category_id = $1, city_id = $2, title = $3, price = $4, description = $5, is_published = $6, updated_at = NOW()
			WHERE id = $7
			RETURNING ` + listingColumns + `;
		`
		if err := tx.GetContext(ctx, &updated, query,
			listing.CategoryID, listing.CityID, listing.Title, listing.Price, listing.Description, listing.IsPublished, listing.ID,
		); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NotFound("listing", listing.ID)
			}
			return translatePQError(fmt.Errorf("store: UpdateListing failed to update: %w", err), "listing")
		}
		if values == nil {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM listing_attribute_values WHERE listing_id = $1;`, listing.ID); err != nil {
			return fmt.Errorf("store: UpdateListing failed to clear attribute values: %w", err)
		}
		return insertAttributeValues(ctx, tx, listing.ID, values)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *PostgresStore) ReplaceAttributeValues(ctx context.Context, listingID uuid.UUID, values []domain.ListingAttributeValue) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockListing(ctx, tx, listingID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM listing_attribute_values WHERE listing_id = $1;`, listingID); err != nil {
			return fmt.Errorf("store: ReplaceAttributeValues failed to clear values: %w", err)
		}
		if err := insertAttributeValues(ctx, tx, listingID, values); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE listings SET updated_at = NOW() WHERE id = $1;`, listingID)
		if err != nil {
			return fmt.Errorf("store: ReplaceAttributeValues failed to touch listing: %w", err)
		}
		return nil
	})
}

func insertAttributeValues(ctx context.Context, tx *sqlx.Tx, listingID uuid.UUID, values []domain.ListingAttributeValue) error {
	query := `
		INSERT INTO listing_attribute_values (listing_id, attribute_id, value_text, value_number, value_bool, option_id)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	for _, v := range values {
		cols := domain.ColumnsOf(v.Value)
		if _, err := tx.ExecContext(ctx, query, listingID, v.AttributeID, cols.Text, cols.Number, cols.Bool, cols.OptionID); err != nil {
			return translatePQError(fmt.Errorf("store: failed to insert attribute value %s: %w", v.AttributeID, err), "attribute value")
		}
	}
	return nil
}

func (s *PostgresStore) ListAttributeValues(ctx context.Context, listingID uuid.UUID) ([]domain.ListingAttributeValue, error) {
	query := `
		SELECT v.listing_id, v.attribute_id, a.type, v.value_text, v.value_number, v.value_bool, v.option_id
		FROM listing_attribute_values v
		JOIN category_attributes a ON a.id = v.attribute_id
		WHERE v.listing_id = $1
		ORDER BY a.sort_order ASC, a.code ASC;
	`
	var rows []attributeValueRow
	if err := s.db.SelectContext(ctx, &rows, query, listingID); err != nil {
		return nil, fmt.Errorf("store: ListAttributeValues failed to query values: %w", err)
	}
	values := make([]domain.ListingAttributeValue, 0, len(rows))
	for _, r := range rows {
		v, err := r.ValueColumns.Value(r.Type)
		if err != nil {
			s.logger.Sugar().Warnw("Skipping malformed attribute value",
				"listing_id", r.ListingID, "attribute_id", r.AttributeID, "error", err)
			continue
		}
		values = append(values, domain.ListingAttributeValue{ListingID: r.ListingID, AttributeID: r.AttributeID, Value: v})
	}
	return values, nil
}

// ListPublishedListings returns the newest published listings. The main photo
// URL falls back to the lowest sort_order photo.
func (s *PostgresStore) ListPublishedListings(ctx context.Context, params ListListingsParams) ([]domain.ListingCard, error) {
	query := `
		SELECT l.id, l.category_id, l.title, l.price, l.city_id, l.created_at,
		       (SELECT p.url FROM listing_photos p
		         WHERE p.listing_id = l.id
		         ORDER BY p.is_main DESC, p.sort_order ASC
		         LIMIT 1) AS main_photo_url
		FROM listings l
		WHERE l.is_published = TRUE
		  AND ($2::uuid IS NULL OR l.category_id = $2::uuid)
		ORDER BY l.created_at DESC
		LIMIT $1;
	`
	cards := []domain.ListingCard{}
	if err := s.db.SelectContext(ctx, &cards, query, params.Limit, params.CategoryID); err != nil {
		return nil, fmt.Errorf("store: ListPublishedListings failed to query listings: %w", err)
	}
	return cards, nil
}

// lockListing takes the row lock that serializes photo and value mutations of one listing.
func lockListing(ctx context.Context, tx *sqlx.Tx, listingID uuid.UUID) error {
	var id uuid.UUID
	if err := tx.GetContext(ctx, &id, `SELECT id FROM listings WHERE id = $1 FOR UPDATE;`, listingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("listing", listingID)
		}
		return fmt.Errorf("store: failed to lock listing: %w", err)
	}
	return nil
}
