package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":         "ru",
		"ru":       "ru",
		" EN ":     "en",
		"hy-AM":    "hy",
		"en_US":    "en",
		"de":       "ru",
		"hi":       "ru",
		"russian":  "ru",
		"Armenian": "ru",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestNormalizeGeo(t *testing.T) {
	assert.Equal(t, "hi", NormalizeGeo("HI"))
	assert.Equal(t, "hi", NormalizeGeo("hi-IN"))
	assert.Equal(t, "en", NormalizeGeo("en"))
	assert.Equal(t, "ru", NormalizeGeo("fr"))
	assert.Equal(t, "ru", NormalizeGeo(""))
}

func TestResolve(t *testing.T) {
	rows := Translations{"ru": "Авто", "hy": "Ավտո"}

	assert.Equal(t, "Ավտո", Resolve("hy", rows, "auto"))
	assert.Equal(t, "Авто", Resolve("en", rows, "auto"), "missing language falls back to ru")
	assert.Equal(t, "auto", Resolve("en", Translations{"hy": "Ավտո"}, "auto"), "no ru row falls back to the structural value")
	assert.Equal(t, "auto", Resolve("en", nil, "auto"))
	assert.Equal(t, "Авто", Resolve("en", Translations{"en": "", "ru": "Авто"}, "auto"), "empty values are skipped")
}

func TestResolve_UnsupportedTagMatchesDefault(t *testing.T) {
	rows := Translations{"ru": "Электроника", "en": "Electronics"}
	assert.Equal(t, Resolve(Normalize("ru"), rows, "x"), Resolve(Normalize("zz"), rows, "x"))
}

func TestTranslationsSet(t *testing.T) {
	var tr Translations
	tr.Set("en", "Cars")
	assert.Equal(t, Translations{"en": "Cars"}, tr)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("hy"))
	assert.False(t, IsSupported("hi"), "hi is geo only")
	assert.False(t, IsSupported("EN"))
}
