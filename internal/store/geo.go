package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"catalog-service/internal/domain"
	"catalog-service/internal/i18n"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// --- GeoStorer Implementation ---

func (s *PostgresStore) ListRegions(ctx context.Context) ([]domain.Region, error) {
	var regions []domain.Region
	if err := s.db.SelectContext(ctx, &regions, `
		SELECT id, code, is_active
		FROM regions
		WHERE is_active = TRUE
		ORDER BY code ASC;
	`); err != nil {
		return nil, fmt.Errorf("store: ListRegions failed to query regions: %w", err)
	}
	names, err := s.loadTranslations(ctx, s.db, `
		SELECT n.region_id AS owner_id, n.lang, n.name AS value
		FROM region_i18n n
		JOIN regions r ON r.id = n.region_id
		WHERE r.is_active = TRUE;
	`)
	if err != nil {
		return nil, fmt.Errorf("store: ListRegions failed to query names: %w", err)
	}
	for i := range regions {
		regions[i].Names = names[regions[i].ID]
	}
	return regions, nil
}

// ListCities matches Query case-insensitively against the name in Lang, the
// default-language name and the code. A zero Limit means no limit.
func (s *PostgresStore) ListCities(ctx context.Context, filter CityFilter) ([]domain.City, error) {
	lang := filter.Lang
	if lang == "" {
		lang = i18n.DefaultLang
	}
	query := `
		SELECT c.id, c.region_id, c.code, c.is_active
		FROM cities c
		LEFT JOIN regions r ON r.id = c.region_id
		LEFT JOIN city_i18n n ON n.city_id = c.id AND n.lang = $3
		LEFT JOIN city_i18n d ON d.city_id = c.id AND d.lang = $4
		WHERE c.is_active = TRUE
		  AND ($1::text = '' OR r.code = $1::text)
		  AND ($2::text = '' OR n.name ILIKE '%' || $2::text || '%' OR d.name ILIKE '%' || $2::text || '%' OR c.code ILIKE '%' || $2::text || '%')
		ORDER BY COALESCE(n.name, d.name, c.code) ASC
		LIMIT NULLIF($5, 0);
	`
	var cities []domain.City
	if err := s.db.SelectContext(ctx, &cities, query,
		strings.TrimSpace(filter.RegionCode), likeEscaper.Replace(strings.TrimSpace(filter.Query)), lang, i18n.DefaultLang, filter.Limit,
	); err != nil {
		return nil, fmt.Errorf("store: ListCities failed to query cities: %w", err)
	}
	if len(cities) == 0 {
		return cities, nil
	}
	if err := s.attachCityDetails(ctx, cities); err != nil {
		return nil, fmt.Errorf("store: ListCities: %w", err)
	}
	return cities, nil
}

func (s *PostgresStore) GetCity(ctx context.Context, id uuid.UUID) (*domain.City, error) {
	var city domain.City
	if err := s.db.GetContext(ctx, &city, `
		SELECT id, region_id, code, is_active
		FROM cities
		WHERE id = $1 AND is_active = TRUE;
	`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("city", id)
		}
		return nil, fmt.Errorf("store: GetCity failed to scan row: %w", err)
	}
	cities := []domain.City{city}
	if err := s.attachCityDetails(ctx, cities); err != nil {
		return nil, fmt.Errorf("store: GetCity: %w", err)
	}
	return &cities[0], nil
}

func (s *PostgresStore) CityNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]i18n.Translations, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]i18n.Translations{}, nil
	}
	names, err := s.loadTranslations(ctx, s.db, `
		SELECT city_id AS owner_id, lang, name AS value
		FROM city_i18n
		WHERE city_id = ANY($1::uuid[]);
	`, uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("store: CityNames failed to query names: %w", err)
	}
	return names, nil
}

// attachCityDetails sets names on each city and its region, when it has one.
func (s *PostgresStore) attachCityDetails(ctx context.Context, cities []domain.City) error {
	ids := make([]uuid.UUID, len(cities))
	var regionIDs []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for i, c := range cities {
		ids[i] = c.ID
		if c.RegionID != nil && !seen[*c.RegionID] {
			seen[*c.RegionID] = true
			regionIDs = append(regionIDs, *c.RegionID)
		}
	}

	names, err := s.CityNames(ctx, ids)
	if err != nil {
		return err
	}

	regions := make(map[uuid.UUID]*domain.Region, len(regionIDs))
	if len(regionIDs) > 0 {
		var rows []domain.Region
		if err := s.db.SelectContext(ctx, &rows, `
			SELECT id, code, is_active
			FROM regions
			WHERE id = ANY($1::uuid[]);
		`, uuidStrings(regionIDs)); err != nil {
			return fmt.Errorf("failed to query regions: %w", err)
		}
		regionNames, err := s.loadTranslations(ctx, s.db, `
			SELECT region_id AS owner_id, lang, name AS value
			FROM region_i18n
			WHERE region_id = ANY($1::uuid[]);
		`, uuidStrings(regionIDs))
		if err != nil {
			return fmt.Errorf("failed to query region names: %w", err)
		}
		for i := range rows {
			r := rows[i]
			r.Names = regionNames[r.ID]
			regions[r.ID] = &r
		}
	}

	for i := range cities {
		cities[i].Names = names[cities[i].ID]
		if cities[i].RegionID != nil {
			cities[i].Region = regions[*cities[i].RegionID]
		}
	}
	return nil
}
