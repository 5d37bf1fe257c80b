// Package i18n resolves display strings for the languages the catalog supports.
package i18n

import "strings"

// DefaultLang is used whenever a requested language is absent or unsupported,
// and it is the first fallback when an entity has no row for the requested language.
const DefaultLang = "ru"

var (
	catalogLangs = map[string]bool{"ru": true, "hy": true, "en": true}
	geoLangs     = map[string]bool{"ru": true, "hy": true, "en": true, "hi": true}
)

// Translations maps a language code to the value stored for it.
type Translations map[string]string

// Normalize maps a client supplied language tag onto one of ru, hy, en.
func Normalize(tag string) string {
	return normalize(tag, catalogLangs)
}

// NormalizeGeo is Normalize for geo reference data, which additionally carries hi names.
func NormalizeGeo(tag string) string {
	return normalize(tag, geoLangs)
}

// IsSupported reports whether lang is exactly one of the catalog languages.
func IsSupported(lang string) bool {
	return catalogLangs[lang]
}

func normalize(tag string, supported map[string]bool) string {
	l := strings.ToLower(strings.TrimSpace(tag))
	if len(l) > 2 {
		l = l[:2]
	}
	if supported[l] {
		return l
	}
	return DefaultLang
}

// Resolve returns the value for lang, then the DefaultLang value, then fallback.
// lang is expected to be normalized already.
func Resolve(lang string, rows Translations, fallback string) string {
	if v := rows[lang]; v != "" {
		return v
	}
	if v := rows[DefaultLang]; v != "" {
		return v
	}
	return fallback
}

// Set records value for lang, allocating the map on first use.
func (t *Translations) Set(lang, value string) {
	if *t == nil {
		*t = Translations{}
	}
	(*t)[lang] = value
}
