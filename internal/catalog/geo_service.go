package catalog

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"catalog-service/internal/domain"
	"catalog-service/internal/i18n"
	"catalog-service/internal/store"
)

const (
	minCitySearchLen = 2
	citySearchLimit  = 20
)

// CityQuery filters ListCities. Region is a region code.
type CityQuery struct {
	Region string
	Lang   string
	Query  string
}

type GeoService struct {
	geo    store.GeoStorer
	logger *zap.Logger
}

func NewGeoService(geo store.GeoStorer, logger *zap.Logger) *GeoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeoService{geo: geo, logger: logger}
}

func (s *GeoService) ListRegions(ctx context.Context, lang string) ([]domain.RegionView, error) {
	regions, err := s.geo.ListRegions(ctx)
	if err != nil {
		return nil, err
	}
	lang = i18n.NormalizeGeo(lang)
	views := make([]domain.RegionView, len(regions))
	for i, r := range regions {
		views[i] = domain.RegionView{ID: r.ID, Code: r.Code, Name: i18n.Resolve(lang, r.Names, r.Code)}
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views, nil
}

func (s *GeoService) ListCities(ctx context.Context, q CityQuery) ([]domain.CityView, error) {
	lang := i18n.NormalizeGeo(q.Lang)
	cities, err := s.geo.ListCities(ctx, store.CityFilter{
		RegionCode: q.Region,
		Query:      q.Query,
		Lang:       lang,
	})
	if err != nil {
		return nil, err
	}
	views := make([]domain.CityView, len(cities))
	for i, c := range cities {
		views[i] = domain.CityView{
			ID:       c.ID,
			RegionID: c.RegionID,
			Code:     c.Code,
			Name:     i18n.Resolve(lang, c.Names, c.Code),
		}
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views, nil
}

// SearchCities backs the city autocomplete. Queries shorter than two
// characters return an empty result without touching the database.
func (s *GeoService) SearchCities(ctx context.Context, lang, q string) ([]domain.CitySearchItem, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < minCitySearchLen {
		return []domain.CitySearchItem{}, nil
	}
	lang = i18n.NormalizeGeo(lang)
	cities, err := s.geo.ListCities(ctx, store.CityFilter{Query: q, Lang: lang, Limit: citySearchLimit})
	if err != nil {
		return nil, err
	}
	items := make([]domain.CitySearchItem, len(cities))
	for i, c := range cities {
		items[i] = domain.CitySearchItem{
			ID:       c.ID,
			Name:     i18n.Resolve(lang, c.Names, c.Code),
			RegionID: c.RegionID,
		}
		if c.Region != nil {
			items[i].RegionName = i18n.Resolve(lang, c.Region.Names, c.Region.Code)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	s.logger.Debug("City search", zap.String("q", q), zap.Int("results", len(items)))
	return items, nil
}
