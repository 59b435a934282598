package i18n

import "embed"

// EmbeddedLocales holds locales/*.json. Use fs.Sub(EmbeddedLocales, "locales").
//
//go:embed locales/*.json
var EmbeddedLocales embed.FS
