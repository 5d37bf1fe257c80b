package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"catalog-service/internal/domain"
	"catalog-service/internal/i18n"
)

const categoryColumns = `id, slug, icon, sort_order, parent_id, is_enabled, created_at, updated_at`

// translationRow is one (owner, lang) -> value row of any *_i18n table.
type translationRow struct {
	OwnerID uuid.UUID `db:"owner_id"`
	Lang    string    `db:"lang"`
	Value   string    `db:"value"`
}

func (s *PostgresStore) loadTranslations(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (map[uuid.UUID]i18n.Translations, error) {
	var rows []translationRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]i18n.Translations)
	for _, r := range rows {
		t := out[r.OwnerID]
		t.Set(r.Lang, r.Value)
		out[r.OwnerID] = t
	}
	return out, nil
}

// --- CategoryStorer Implementation ---

func (s *PostgresStore) ListEnabledCategories(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT id, slug, icon, sort_order, parent_id, is_enabled, created_at, updated_at
		FROM categories
		WHERE is_enabled = TRUE
		ORDER BY sort_order ASC, slug ASC;
	`
	var categories []domain.Category
	if err := s.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("store: ListEnabledCategories failed to query categories: %w", err)
	}

	names, err := s.loadTranslations(ctx, s.db, `
		SELECT t.category_id AS owner_id, t.lang, t.name AS value
		FROM category_translations t
		JOIN categories c ON c.id = t.category_id
		WHERE c.is_enabled = TRUE;
	`)
	if err != nil {
		return nil, fmt.Errorf("store: ListEnabledCategories failed to query translations: %w", err)
	}
	for i := range categories {
		categories[i].Names = names[categories[i].ID]
	}
	return categories, nil
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT id, slug, icon, sort_order, parent_id, is_enabled, created_at, updated_at
		FROM categories
		ORDER BY created_at DESC;
	`
	var categories []domain.Category
	if err := s.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("store: ListCategories failed to query categories: %w", err)
	}

	names, err := s.loadTranslations(ctx, s.db, `
		SELECT category_id AS owner_id, lang, name AS value
		FROM category_translations;
	`)
	if err != nil {
		return nil, fmt.Errorf("store: ListCategories failed to query translations: %w", err)
	}
	for i := range categories {
		categories[i].Names = names[categories[i].ID]
	}
	return categories, nil
}

func (s *PostgresStore) GetCategoryByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := `
		SELECT id, slug, icon, sort_order, parent_id, is_enabled, created_at, updated_at
		FROM categories
		WHERE id = $1;
	`
	var category domain.Category
	if err := s.db.GetContext(ctx, &category, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("category", id)
		}
		return nil, fmt.Errorf("store: GetCategoryByID failed to scan row: %w", err)
	}

	names, err := s.loadTranslations(ctx, s.db, `
		SELECT category_id AS owner_id, lang, name AS value
		FROM category_translations
		WHERE category_id = $1;
	`, id)
	if err != nil {
		return nil, fmt.Errorf("store: GetCategoryByID failed to query translations: %w", err)
	}
	category.Names = names[id]
	return &category, nil
}

func (s *PostgresStore) CategoryParents(ctx context.Context) (map[uuid.UUID]*uuid.UUID, error) {
	var rows []struct {
		ID       uuid.UUID  `db:"id"`
		ParentID *uuid.UUID `db:"parent_id"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, parent_id FROM categories;`); err != nil {
		return nil, fmt.Errorf("store: CategoryParents failed to query categories: %w", err)
	}
	parents := make(map[uuid.UUID]*uuid.UUID, len(rows))
	for _, r := range rows {
		parents[r.ID] = r.ParentID
	}
	return parents, nil
}

func (s *PostgresStore) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM categories WHERE slug = $1 AND ($2::uuid IS NULL OR id <> $2::uuid));`
	var exists bool
	if err := s.db.QueryRowxContext(ctx, query, slug, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("store: SlugExists failed: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	var created domain.Category
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO categories (id, slug, icon, sort_order, parent_id, is_enabled)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING ` + categoryColumns + `;
		`
		if err := tx.GetContext(ctx, &created, query,
			category.ID, category.Slug, category.Icon, category.SortOrder, category.ParentID, category.IsEnabled,
		); err != nil {
			return translatePQError(fmt.Errorf("store: CreateCategory failed to insert: %w", err), "category")
		}
		return upsertCategoryNames(ctx, tx, created.ID, category.Names)
	})
	if err != nil {
		return nil, err
	}
	created.Names = category.Names
	return &created, nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	var updated domain.Category
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE categories
			SET slug = $1, icon = $2, sort_order = $3, parent_id = $4, is_enabled = $5, updated_at = NOW()
			WHERE id = $6
			RETURNING ` + categoryColumns + `;
		`
		if err := tx.GetContext(ctx, &updated, query,
			category.Slug, category.Icon, category.SortOrder, category.ParentID, category.IsEnabled, category.ID,
		); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NotFound("category", category.ID)
			}
			return translatePQError(fmt.Errorf("store: UpdateCategory failed to update: %w", err), "category")
		}
		return upsertCategoryNames(ctx, tx, updated.ID, category.Names)
	})
	if err != nil {
		return nil, err
	}
	updated.Names = category.Names
	return &updated, nil
}

func upsertCategoryNames(ctx context.Context, tx *sqlx.Tx, categoryID uuid.UUID, names i18n.Translations) error {
	query := `
		INSERT INTO category_translations (category_id, lang, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (category_id, lang) DO UPDATE SET name = EXCLUDED.name;
	`
	for _, lang := range sortedLangs(names) {
		if _, err := tx.ExecContext(ctx, query, categoryID, lang, names[lang]); err != nil {
			return fmt.Errorf("store: failed to upsert category translation %s: %w", lang, err)
		}
	}
	return nil
}

// DisableCategory is a soft delete; rows are never removed.
func (s *PostgresStore) DisableCategory(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE categories SET is_enabled = FALSE, updated_at = NOW() WHERE id = $1;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DisableCategory failed to execute update: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DisableCategory failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.NotFound("category", id)
	}
	return nil
}
