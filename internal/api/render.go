package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/JakeFAU/mcatedge-landing/internal/site"
)

// renderDocument wraps body in the document shell.
func (s *Server) renderDocument(w http.ResponseWriter, r *http.Request, title string, events []string, body templ.Component) {
	s.renderComponent(w, r, http.StatusOK, "layout", site.Layout(site.PageView{
		Title:   title,
		SiteKey: s.opts.SiteKey,
		Action:  s.opts.Action,
		Events:  events,
	}, body))
}

// renderComponent buffers c so a failed render still yields a clean 500.
func (s *Server) renderComponent(w http.ResponseWriter, r *http.Request, status int, name string, c templ.Component) {
	out, err := renderBytes(r.Context(), c)
	if err != nil {
		s.logger.Error("render component failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("component", name),
			zap.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, out)
}

func renderBytes(ctx context.Context, c templ.Component) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
