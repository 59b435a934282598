// Package email sends the few transactional emails BlogMe needs.
//
// Services depend on the Sender interface; the Resend implementation is
// wired in main when RESEND_API_KEY and MODERATOR_EMAIL are configured.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/resend/resend-go/v3"
)

// ReportNotice describes a post report forwarded to the moderators.
type ReportNotice struct {
	PostID     string
	PostAuthor string
	Excerpt    string // plain text, already trimmed
	Reason     string
	Reporter   string
	ReportedAt time.Time
	PostURL    string
	Delivered  bool // whether the remote backend accepted the report
}

// Sender sends moderator notices.
type Sender interface {
	SendReportNotice(ctx context.Context, notice ReportNotice) error
}

type resendSender struct {
	client         *resend.Client
	fromEmail      string
	moderatorEmail string
}

// NewResendSender builds a Sender on the Resend API.
// fromEmail must belong to a domain verified in Resend.
func NewResendSender(apiKey, fromEmail, moderatorEmail string) Sender {
	return &resendSender{
		client:         resend.NewClient(apiKey),
		fromEmail:      fromEmail,
		moderatorEmail: moderatorEmail,
	}
}

func (s *resendSender) SendReportNotice(ctx context.Context, notice ReportNotice) error {
	body, err := RenderReportNotice(notice)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{s.moderatorEmail},
		Subject: fmt.Sprintf("BlogMe: publicación reportada (%s)", notice.PostID),
		Html:    body,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send report notice: %w", err)
	}

	return nil
}

// The reason and excerpt are user input; html/template escapes them.
var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;padding:24px;background-color:#f5f7fb;font-family:Arial,Helvetica,sans-serif;">
  <table width="520" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;padding:32px;">
    <tr><td>
      <h1 style="color:#004e92;font-size:22px;margin:0 0 16px 0;">BlogMe</h1>
      <h2 style="color:#1f2937;font-size:17px;margin:0 0 16px 0;">Publicación reportada</h2>
      <p style="color:#374151;font-size:14px;margin:0 0 8px 0;"><strong>Autor:</strong> {{.PostAuthor}}</p>
      <p style="color:#374151;font-size:14px;margin:0 0 8px 0;"><strong>Reportado por:</strong> {{.Reporter}}</p>
      <p style="color:#374151;font-size:14px;margin:0 0 8px 0;"><strong>Motivo:</strong> {{.Reason}}</p>
      <blockquote style="color:#6b7280;font-size:14px;border-left:3px solid #d1d5db;margin:16px 0;padding-left:12px;">{{.Excerpt}}</blockquote>
      <p style="color:#6b7280;font-size:12px;margin:0 0 8px 0;">{{.ReportedAt.Format "2006-01-02 15:04 MST"}}{{if not .Delivered}} · el backend no recibió el reporte{{end}}</p>
      {{if .PostURL}}<p style="margin:16px 0 0 0;"><a href="{{.PostURL}}" style="color:#004e92;">Ver publicación</a></p>{{end}}
    </td></tr>
  </table>
</body>
</html>`))

// RenderReportNotice renders the HTML body of a report notice.
func RenderReportNotice(notice ReportNotice) (string, error) {
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, notice); err != nil {
		return "", fmt.Errorf("failed to render report notice: %w", err)
	}
	return buf.String(), nil
}
