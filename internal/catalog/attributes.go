package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"catalog-service/internal/domain"
)

// Number attribute values are stored as NUMERIC(18,4).
const attributeNumberScale = 4

var attributeNumberLimit = decimal.New(1, 14)

// ValidateAttributeValues checks submitted values, keyed by attribute code,
// against the category's definitions and returns them typed in definition
// order. Empty optional values are dropped. Select values may name an option
// by code or id; the option must be active.
func ValidateAttributeValues(defs []domain.CategoryAttribute, submitted map[string]any) ([]domain.ListingAttributeValue, error) {
	byCode := make(map[string]*domain.CategoryAttribute, len(defs))
	for i := range defs {
		byCode[defs[i].Code] = &defs[i]
	}

	codes := make([]string, 0, len(submitted))
	for code := range submitted {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		if _, ok := byCode[code]; !ok {
			return nil, domain.Validationf("attributes", "unknown attribute code %q", code)
		}
	}

	values := make([]domain.ListingAttributeValue, 0, len(submitted))
	for i := range defs {
		def := &defs[i]
		v, err := parseAttributeValue(def, submitted[def.Code])
		if err != nil {
			return nil, err
		}
		if v == nil {
			if def.IsRequired {
				return nil, domain.Validationf(def.Code, "attribute %q is required", def.Code)
			}
			continue
		}
		values = append(values, domain.ListingAttributeValue{AttributeID: def.ID, Value: v})
	}
	return values, nil
}

// parseAttributeValue returns nil, nil for a missing value. A blank string
// counts as missing for text and select attributes only.
func parseAttributeValue(def *domain.CategoryAttribute, raw any) (domain.AttributeValue, error) {
	if raw == nil {
		return nil, nil
	}
	if isBlank(raw) && (def.Type == domain.AttributeText || def.Type == domain.AttributeSelect) {
		return nil, nil
	}

	switch def.Type {
	case domain.AttributeText:
		s, ok := raw.(string)
		if !ok {
			return nil, domain.Validationf(def.Code, "attribute %q expects text", def.Code)
		}
		return domain.TextValue(strings.TrimSpace(s)), nil

	case domain.AttributeNumber:
		d, err := toDecimal(raw)
		if err != nil {
			return nil, domain.Validationf(def.Code, "attribute %q expects a number", def.Code)
		}
		if !fitsNumeric(d, attributeNumberScale, attributeNumberLimit) {
			return nil, domain.Validationf(def.Code,
				"attribute %q must be below %s in magnitude with at most %d decimal places",
				def.Code, attributeNumberLimit, attributeNumberScale)
		}
		return domain.NumberValue{Value: d}, nil

	case domain.AttributeBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, domain.Validationf(def.Code, "attribute %q expects true or false", def.Code)
		}
		return domain.BoolValue(b), nil

	case domain.AttributeSelect:
		ref, ok := raw.(string)
		if !ok {
			return nil, domain.Validationf(def.Code, "attribute %q expects an option code", def.Code)
		}
		opt := def.FindOption(ref)
		if opt == nil {
			return nil, domain.Validationf(def.Code, "option %q does not belong to attribute %q", ref, def.Code)
		}
		if !opt.IsActive {
			return nil, domain.Validationf(def.Code, "option %q of attribute %q is inactive", opt.Code, def.Code)
		}
		return domain.OptionValue{OptionID: opt.ID}, nil
	}
	return nil, fmt.Errorf("catalog: attribute %q has unknown type %q", def.Code, def.Type)
}

// fitsNumeric reports whether d is representable in a NUMERIC column with
// the given scale whose magnitude must stay below limit.
func fitsNumeric(d decimal.Decimal, scale int32, limit decimal.Decimal) bool {
	return d.Abs().LessThan(limit) && d.Equal(d.Truncate(scale))
}

func isBlank(raw any) bool {
	s, ok := raw.(string)
	return ok && strings.TrimSpace(s) == ""
}

func toDecimal(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case decimal.Decimal:
		return v, nil
	}
	return decimal.Decimal{}, fmt.Errorf("unsupported number type %T", raw)
}
