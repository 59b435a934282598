package i18n

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadEmbedded(t *testing.T) {
	t.Helper()
	sub, err := fs.Sub(EmbeddedLocales, "locales")
	require.NoError(t, err)
	require.NoError(t, Load(sub))
}

func TestTranslate(t *testing.T) {
	loadEmbedded(t)

	es := NewLocalizer("es")
	assert.Equal(t, "Escribe algo para publicar", es.T("feed.empty_post"))

	en := NewLocalizer("en")
	assert.Equal(t, "Write a comment", en.T("comments.empty"))

	// unknown keys pass through untouched
	assert.Equal(t, "plain text", en.T("plain text"))
}

func TestUnsupportedLanguageFallsBack(t *testing.T) {
	loadEmbedded(t)

	l := NewLocalizer("tr")
	assert.Equal(t, DefaultLanguage, l.Lang())
	assert.Equal(t, "Hilo no encontrado", l.T("comments.thread_missing"))
}

func TestTWithParams(t *testing.T) {
	loadEmbedded(t)

	l := NewLocalizer("es")
	assert.Equal(t, "Bienvenido ana", l.TWithParams("auth.welcome", map[string]string{"name": "ana"}))
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "en", DetectLanguage("en-US,en;q=0.9"))
	assert.Equal(t, "es", DetectLanguage("fr-FR,es;q=0.5"))
	assert.Equal(t, DefaultLanguage, DetectLanguage(""))
	assert.Equal(t, DefaultLanguage, DetectLanguage("de"))
	assert.Equal(t, "es", DetectLanguage("en;q=0.3, es-AR;q=0.8"))
	assert.Equal(t, "en", DetectLanguage("en, es"))
	assert.Equal(t, "es", DetectLanguage("en;q=bogus, es;q=0.1"))
}

func TestLocalesHaveTheSameKeys(t *testing.T) {
	loadEmbedded(t)

	assert.Empty(t, MissingKeys("en"))
	assert.Empty(t, MissingKeys("es"))
}
