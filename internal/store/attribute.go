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

const attributeColumns = `id, category_id, code, type, is_required, sort_order, unit, created_at, updated_at`

// --- AttributeStorer Implementation ---

func (s *PostgresStore) ListAttributes(ctx context.Context, categoryID uuid.UUID) ([]domain.CategoryAttribute, error) {
	query := `
		SELECT id, category_id, code, type, is_required, sort_order, unit, created_at, updated_at
		FROM category_attributes
		WHERE category_id = $1
		ORDER BY sort_order ASC, code ASC;
	`
	var attrs []domain.CategoryAttribute
	if err := s.db.SelectContext(ctx, &attrs, query, categoryID); err != nil {
		return nil, fmt.Errorf("store: ListAttributes failed to query attributes: %w", err)
	}
	if err := s.loadAttributeDetails(ctx, attrs); err != nil {
		return nil, fmt.Errorf("store: ListAttributes: %w", err)
	}
	return attrs, nil
}

func (s *PostgresStore) GetAttributeByID(ctx context.Context, id uuid.UUID) (*domain.CategoryAttribute, error) {
	query := `
		SELECT id, category_id, code, type, is_required, sort_order, unit, created_at, updated_at
		FROM category_attributes
		WHERE id = $1;
	`
	var attr domain.CategoryAttribute
	if err := s.db.GetContext(ctx, &attr, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("attribute", id)
		}
		return nil, fmt.Errorf("store: GetAttributeByID failed to scan row: %w", err)
	}
	attrs := []domain.CategoryAttribute{attr}
	if err := s.loadAttributeDetails(ctx, attrs); err != nil {
		return nil, fmt.Errorf("store: GetAttributeByID: %w", err)
	}
	return &attrs[0], nil
}

// loadAttributeDetails fills labels and options (with their labels) in place.
func (s *PostgresStore) loadAttributeDetails(ctx context.Context, attrs []domain.CategoryAttribute) error {
	if len(attrs) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(attrs))
	for i := range attrs {
		ids[i] = attrs[i].ID
	}

	labels, err := s.loadTranslations(ctx, s.db, `
		SELECT attribute_id AS owner_id, lang, title AS value
		FROM category_attribute_i18n
		WHERE attribute_id = ANY($1::uuid[]);
	`, uuidStrings(ids))
	if err != nil {
		return fmt.Errorf("failed to query attribute labels: %w", err)
	}

	var options []domain.AttributeOption
	if err := s.db.SelectContext(ctx, &options, `
		SELECT id, attribute_id, code, sort_order, is_active
		FROM attribute_options
		WHERE attribute_id = ANY($1::uuid[])
		ORDER BY sort_order ASC, code ASC;
	`, uuidStrings(ids)); err != nil {
		return fmt.Errorf("failed to query attribute options: %w", err)
	}

	var optionLabels map[uuid.UUID]i18n.Translations
	if len(options) > 0 {
		optionIDs := make([]uuid.UUID, len(options))
		for i := range options {
			optionIDs[i] = options[i].ID
		}
		optionLabels, err = s.loadTranslations(ctx, s.db, `
			SELECT option_id AS owner_id, lang, title AS value
			FROM attribute_option_i18n
			WHERE option_id = ANY($1::uuid[]);
		`, uuidStrings(optionIDs))
		if err != nil {
			return fmt.Errorf("failed to query option labels: %w", err)
		}
	}

	byAttr := make(map[uuid.UUID][]domain.AttributeOption, len(attrs))
	for _, o := range options {
		o.Labels = optionLabels[o.ID]
		byAttr[o.AttributeID] = append(byAttr[o.AttributeID], o)
	}
	for i := range attrs {
		attrs[i].Labels = labels[attrs[i].ID]
		attrs[i].Options = byAttr[attrs[i].ID]
	}
	return nil
}

func (s *PostgresStore) CreateAttribute(ctx context.Context, attr *domain.CategoryAttribute) (*domain.CategoryAttribute, error) {
	if attr.ID == uuid.Nil {
		attr.ID = uuid.New()
	}
	var created domain.CategoryAttribute
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO category_attributes (id, category_id, code, type, is_required, sort_order, unit)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING ` + attributeColumns + `;
		`
		if err := tx.GetContext(ctx, &created, query,
			attr.ID, attr.CategoryID, attr.Code, string(attr.Type), attr.IsRequired, attr.SortOrder, attr.Unit,
		); err != nil {
			return translatePQError(fmt.Errorf("store: CreateAttribute failed to insert: %w", err), "attribute")
		}
		labelQuery := `INSERT INTO category_attribute_i18n (attribute_id, lang, title) VALUES ($1, $2, $3);`
		for _, lang := range sortedLangs(attr.Labels) {
			if _, err := tx.ExecContext(ctx, labelQuery, created.ID, lang, attr.Labels[lang]); err != nil {
				return fmt.Errorf("store: CreateAttribute failed to insert label %s: %w", lang, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	created.Labels = attr.Labels
	return &created, nil
}

func (s *PostgresStore) CreateOption(ctx context.Context, opt *domain.AttributeOption) (*domain.AttributeOption, error) {
	if opt.ID == uuid.Nil {
		opt.ID = uuid.New()
	}
	var created domain.AttributeOption
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO attribute_options (id, attribute_id, code, sort_order, is_active)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, attribute_id, code, sort_order, is_active;
		`
		if err := tx.GetContext(ctx, &created, query,
			opt.ID, opt.AttributeID, opt.Code, opt.SortOrder, opt.IsActive,
		); err != nil {
			return translatePQError(fmt.Errorf("store: CreateOption failed to insert: %w", err), "attribute option")
		}
		labelQuery := `INSERT INTO attribute_option_i18n (option_id, lang, title) VALUES ($1, $2, $3);`
		for _, lang := range sortedLangs(opt.Labels) {
			if _, err := tx.ExecContext(ctx, labelQuery, created.ID, lang, opt.Labels[lang]); err != nil {
				return fmt.Errorf("store: CreateOption failed to insert label %s: %w", lang, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	created.Labels = opt.Labels
	return &created, nil
}

// SetOptionActive hides or restores an option. Stored values that reference it are kept.
func (s *PostgresStore) SetOptionActive(ctx context.Context, optionID uuid.UUID, active bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE attribute_options SET is_active = $1 WHERE id = $2;`, active, optionID)
	if err != nil {
		return fmt.Errorf("store: SetOptionActive failed to execute update: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: SetOptionActive failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.NotFound("attribute option", optionID)
	}
	return nil
}
