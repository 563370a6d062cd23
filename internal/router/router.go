// Package router maps page paths to fragment resources and loads them for
// in-place navigation.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/mcatedge-landing/internal/fragment"
)

// ErrFragmentLoad reports that a routed fragment could not be fetched or parsed.
var ErrFragmentLoad = errors.New("fragment load failed")

// DefaultPath is served natively by rendering the landing page.
const DefaultPath = "/"

// RouteTable maps a path to its fragment resource name. It is read-only after construction.
type RouteTable map[string]string

// DefaultRoutes is the landing site's route table.
func DefaultRoutes() RouteTable {
	return RouteTable{
		"/":          "index.html",
		"/thank-you": "thank-you.html",
	}
}

// Page is a loaded route.
type Page struct {
	Path     string
	Resource string
	Title    string
	Body     string
	// Events are client events raised by init hooks.
	Events []string
}

// AddEvent records a client event for the page.
func (p *Page) AddEvent(name string) {
	p.Events = append(p.Events, name)
}

// Hook runs after a route's fragment is loaded.
type Hook func(ctx context.Context, page *Page)

type namedHook struct {
	name string
	fn   Hook
}

// Router resolves paths and loads their fragments.
type Router struct {
	routes     RouteTable
	defaultRes string
	source     fragment.Source
	logger     *zap.Logger

	mu    sync.RWMutex
	hooks map[string][]namedHook
	bound map[string]struct{}
}

// New constructs a Router. routes must contain DefaultPath.
func New(routes RouteTable, source fragment.Source, logger *zap.Logger) (*Router, error) {
	def, ok := routes[DefaultPath]
	if !ok {
		return nil, fmt.Errorf("route table has no %q entry", DefaultPath)
	}
	if source == nil {
		return nil, errors.New("fragment source is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	table := make(RouteTable, len(routes))
	for path, res := range routes {
		table[path] = res
	}
	return &Router{
		routes:     table,
		defaultRes: def,
		source:     source,
		logger:     logger.Named("router"),
		hooks:      make(map[string][]namedHook),
		bound:      make(map[string]struct{}),
	}, nil
}

// Resolve returns the resource for path and whether it is the default
// resource. Unknown paths resolve to the default.
func (r *Router) Resolve(path string) (string, bool) {
	res, ok := r.routes[path]
	if !ok {
		res = r.defaultRes
	}
	return res, res == r.defaultRes
}

// PathFor returns the route path whose resource is res.
func (r *Router) PathFor(res string) (string, bool) {
	for path, candidate := range r.routes {
		if candidate == res {
			return path, true
		}
	}
	return "", false
}

// Register binds hook to path under name. A repeated name for the same path
// is ignored and reported as false.
func (r *Router) Register(path, name string, hook Hook) bool {
	key := path + "#" + name
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bound[key]; ok {
		return false
	}
	r.bound[key] = struct{}{}
	r.hooks[path] = append(r.hooks[path], namedHook{name: name, fn: hook})
	return true
}

// Load fetches and parses the fragment for a non-default path and runs its
// init hooks. Resolving to the default resource returns a Page with no body.
func (r *Router) Load(ctx context.Context, path string) (Page, error) {
	res, isDefault := r.Resolve(path)
	if isDefault {
		return Page{Path: DefaultPath, Resource: res}, nil
	}
	data, err := r.source.Fetch(ctx, res)
	if err != nil {
		r.logger.Warn("fragment fetch failed", zap.String("path", path), zap.String("resource", res), zap.Error(err))
		return Page{}, fmt.Errorf("%w: %s: %w", ErrFragmentLoad, res, err)
	}
	doc, err := fragment.Parse(data)
	if err != nil {
		r.logger.Warn("fragment parse failed", zap.String("path", path), zap.Error(err))
		return Page{}, fmt.Errorf("%w: %s: %w", ErrFragmentLoad, res, err)
	}
	page := Page{Path: path, Resource: res, Title: doc.Title, Body: doc.Body}
	r.runHooks(ctx, &page)
	return page, nil
}

func (r *Router) runHooks(ctx context.Context, page *Page) {
	r.mu.RLock()
	hooks := append([]namedHook(nil), r.hooks[page.Path]...)
	r.mu.RUnlock()
	for _, h := range hooks {
		h.fn(ctx, page)
		r.logger.Debug("init hook ran", zap.String("path", page.Path), zap.String("hook", h.name))
	}
}

// ThankYouInit is the init hook of the confirmation page.
func ThankYouInit(_ context.Context, page *Page) {
	page.AddEvent("thankyou:init")
}
