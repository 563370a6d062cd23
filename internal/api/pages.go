package api

import (
	"errors"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/mcatedge-landing/internal/fragment"
	"github.com/JakeFAU/mcatedge-landing/internal/metrics"
	"github.com/JakeFAU/mcatedge-landing/internal/router"
	"github.com/JakeFAU/mcatedge-landing/internal/site"
)

// page serves routed paths. The default route renders the landing page; other
// routes load their fragment body through the router. Every page issues the
// visitor cookie so the first signup already carries it.
func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	visitor := s.visitor(w, r)
	path := r.URL.Path
	if _, isDefault := s.deps.Router.Resolve(path); isDefault {
		s.landing(w, r, visitor)
		return
	}

	page, err := s.deps.Router.Load(r.Context(), path)
	metrics.ObserveFragmentLoad(path, err == nil)
	if err != nil {
		s.logger.Warn("page load failed, falling back to root",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("path", path),
			zap.Error(err),
		)
		writeRedirect(w, r, router.DefaultPath)
		return
	}

	switch {
	case isHistoryRestore(r):
		setTrigger(w, page.Events)
		writeHTML(w, http.StatusOK, []byte(page.Body))
	case isHTMXRequest(r):
		w.Header().Set(hxPushURLHeader, page.Path)
		setTrigger(w, page.Events)
		writeHTML(w, http.StatusOK, []byte(page.Body))
	default:
		// Fragment bodies come from the site's own origin.
		s.renderDocument(w, r, page.Title, page.Events, templ.Raw(page.Body))
	}
}

func (s *Server) landing(w http.ResponseWriter, r *http.Request, visitor string) {
	var hero, footer *site.FormView
	for i, f := range s.deps.Forms {
		fv := &site.FormView{
			ID:         f.ID,
			MessageID:  f.MessageID,
			TokenField: f.TokenField,
			Message:    s.messageFor(visitor, f),
		}
		switch i {
		case 0:
			hero = fv
		case 1:
			footer = fv
		}
	}
	body := site.Landing(hero, footer)
	if isHTMXRequest(r) {
		if !isHistoryRestore(r) {
			w.Header().Set(hxPushURLHeader, router.DefaultPath)
		}
		s.renderComponent(w, r, http.StatusOK, "landing", body)
		return
	}
	s.renderDocument(w, r, "", nil, body)
}

// resource serves a raw fragment resource such as /thank-you.html.
func (s *Server) resource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "resource") + ".html"
	if res, isDefault := s.deps.Router.Resolve(router.DefaultPath); isDefault && name == res {
		s.landing(w, r, s.visitor(w, r))
		return
	}
	data, err := s.deps.Fragments.Fetch(r.Context(), name)
	switch {
	case errors.Is(err, fragment.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		s.logger.Warn("resource fetch failed", zap.String("resource", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	writeHTML(w, http.StatusOK, data)
}
