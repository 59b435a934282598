// Package i18n resolves user-facing message keys ("feed.published") into
// localized text.
//
// Translation files are nested JSON objects, flattened into dot keys at load
// time. Services return keys, handlers translate them for the request's
// language. Spanish is the default: it is the language BlogMe ships in.
package i18n

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// SupportedLanguages lists the locale files that must exist.
var SupportedLanguages = []string{"es", "en"}

// DefaultLanguage is used for unknown or missing languages.
const DefaultLanguage = "es"

var (
	// translations[lang][key] = text
	translations map[string]map[string]string
	loadOnce     sync.Once
)

// Load reads every supported locale from localesFS. Only the first call
// does any work.
func Load(localesFS fs.FS) error {
	var loadErr error

	loadOnce.Do(func() {
		translations = make(map[string]map[string]string)

		for _, lang := range SupportedLanguages {
			fileName := lang + ".json"

			data, err := fs.ReadFile(localesFS, fileName)
			if err != nil {
				loadErr = fmt.Errorf("failed to read translation file %s: %w", fileName, err)
				return
			}

			var nested map[string]any
			if err := json.Unmarshal(data, &nested); err != nil {
				loadErr = fmt.Errorf("failed to parse translation file %s: %w", fileName, err)
				return
			}

			flat := make(map[string]string)
			flattenMap("", nested, flat)
			translations[lang] = flat

			log.Printf("[i18n] loaded %d keys for language: %s", len(flat), lang)
		}

		for _, lang := range SupportedLanguages {
			if missing := MissingKeys(lang); len(missing) > 0 {
				log.Printf("[i18n] %s lacks %d keys, falling back to %s: %v", lang, len(missing), DefaultLanguage, missing)
			}
		}
	})

	return loadErr
}

// Localizer translates keys for one language.
type Localizer struct {
	lang string
}

// NewLocalizer falls back to DefaultLanguage for unsupported languages.
func NewLocalizer(lang string) *Localizer {
	if !isSupported(lang) {
		lang = DefaultLanguage
	}
	return &Localizer{lang: lang}
}

// Lang is the resolved language code.
func (l *Localizer) Lang() string {
	return l.lang
}

// T returns the translation of key, then the default-language translation,
// then the key itself. Plain messages that are not keys pass through.
func (l *Localizer) T(key string) string {
	if msg, ok := translations[l.lang][key]; ok {
		return msg
	}
	if msg, ok := translations[DefaultLanguage][key]; ok {
		return msg
	}
	return key
}

// TWithParams replaces {{name}} placeholders after translating.
//
//	l.TWithParams("auth.welcome", map[string]string{"name": "ana"})
func (l *Localizer) TWithParams(key string, params map[string]string) string {
	msg := l.T(key)
	for k, v := range params {
		msg = strings.ReplaceAll(msg, "{{"+k+"}}", v)
	}
	return msg
}

// DetectLanguage picks the supported language with the highest q-weight
// of an Accept-Language header; ties keep header order.
//
//	"en-US,en;q=0.9,es;q=0.8" → "en"
//	"en;q=0.3,es-AR;q=0.8"    → "es"
func DetectLanguage(acceptLanguage string) string {
	best, bestQ := DefaultLanguage, -1.0

	for _, part := range strings.Split(acceptLanguage, ",") {
		tag, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		lang := strings.ToLower(strings.TrimSpace(strings.Split(tag, "-")[0]))
		if !isSupported(lang) {
			continue
		}

		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			q = parsed
		}
		if q > bestQ {
			best, bestQ = lang, q
		}
	}

	return best
}

// MissingKeys lists the keys of the default language that lang lacks.
// Those fall back to Spanish at runtime.
func MissingKeys(lang string) []string {
	var missing []string
	for key := range translations[DefaultLanguage] {
		if _, ok := translations[lang][key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

func isSupported(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

func flattenMap(prefix string, src map[string]any, dst map[string]string) {
	for k, v := range src {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case string:
			dst[key] = val
		case map[string]any:
			flattenMap(key, val, dst)
		}
	}
}
