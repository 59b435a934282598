package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/pkg/i18n"
	"github.com/akinalp/blogme/services"
)

type contextKey string

// ViewerContextKey holds the models.Viewer of the request, set by the
// auth middleware.
const ViewerContextKey contextKey = "viewer"

// PageHeader carries the id of the page that sent a request. That page
// re-renders from the response; the others are told over the websocket.
const PageHeader = "X-Page-ID"

// WithViewer returns ctx carrying v.
func WithViewer(ctx context.Context, v models.Viewer) context.Context {
	return context.WithValue(ctx, ViewerContextKey, v)
}

// ViewerFrom returns the request's viewer, the guest when none was set.
func ViewerFrom(r *http.Request) models.Viewer {
	if v, ok := r.Context().Value(ViewerContextKey).(models.Viewer); ok {
		return v
	}
	return models.AnonViewer()
}

func origin(r *http.Request) string {
	return r.Header.Get(PageHeader)
}

func localizer(r *http.Request) *i18n.Localizer {
	return i18n.NewLocalizer(i18n.DetectLanguage(r.Header.Get("Accept-Language")))
}

// WriteError translates err for the request's language and writes it.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	loc := localizer(r)
	status := pkg.StatusOf(err)

	var msgErr *pkg.MessageError
	switch {
	case errors.As(err, &msgErr):
		pkg.ErrorWithMessage(w, status, loc.TWithParams(msgErr.Key, msgErr.Params))
	case status == http.StatusInternalServerError:
		log.Printf("[http] %s %s: %v", r.Method, r.URL.Path, err)
		pkg.ErrorWithMessage(w, status, loc.T("errors.internal"))
	default:
		pkg.ErrorWithMessage(w, status, loc.T(pkg.UserMessage(err)))
	}
}

// writeResult writes data with the translated toast of res.
func writeResult(w http.ResponseWriter, r *http.Request, status int, data any, res services.Result) {
	if res.Message == "" {
		pkg.JSON(w, status, data)
		return
	}
	msg := localizer(r).TWithParams(res.Message, res.Params)
	pkg.JSONWithToast(w, status, data, msg, res.Kind)
}

// decode reads a JSON body into dst.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, localizer(r).T("errors.bad_request"))
		return false
	}
	return true
}

// writeHTML writes a rendered document.
func writeHTML(w http.ResponseWriter, status int, doc string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(doc))
}
