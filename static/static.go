// Package static embeds the stylesheet, the page script, images and the
// static help pages served under /static/.
package static

import "embed"

// Assets holds every file served under /static/.
//
//go:embed css js images pages
var Assets embed.FS
