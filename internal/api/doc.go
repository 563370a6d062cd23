// Package api exposes the landing page over HTTP.
//
// Routes:
//   - GET  /                          landing page (full document or HTMX body)
//   - GET  /{resource}.html           raw fragment resource, e.g. /thank-you.html
//   - GET  /*                         routed pages such as /thank-you; unknown paths render the landing page
//   - POST /waitlist/{formID}         runs one signup attempt and returns the form's message fragment
//   - GET  /waitlist/{formID}/message current message fragment for the visitor
//   - GET  /healthz, /readyz, /metrics
//
// Pages are HTMX aware. Navigations receive the page body with HX-Push-Url and
// HX-Trigger headers, history restores receive the body without a push, and
// direct loads receive the full document shell.
package api
