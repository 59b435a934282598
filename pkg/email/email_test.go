package email

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReportNoticeEscapesUserInput(t *testing.T) {
	body, err := RenderReportNotice(ReportNotice{
		PostID:     "post_1",
		PostAuthor: "ana",
		Excerpt:    "hola",
		Reason:     `<script>alert("x")</script>`,
		Reporter:   "u1",
		ReportedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
		PostURL:    "http://localhost:9090/p/post_1",
		Delivered:  false,
	})
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, "2026-01-02 03:04 UTC")
	assert.Contains(t, body, "el backend no recibió el reporte")
	assert.Contains(t, body, `href="http://localhost:9090/p/post_1"`)
}
