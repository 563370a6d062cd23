package api

import (
	"net/http"
	"strings"
)

const (
	hxRequestHeader        = "HX-Request"
	hxHistoryRestoreHeader = "HX-History-Restore-Request"
	hxPushURLHeader        = "HX-Push-Url"
	hxRedirectHeader       = "HX-Redirect"
	hxTriggerHeader        = "HX-Trigger"
)

// isHTMXRequest reports whether the request came from HTMX.
func isHTMXRequest(r *http.Request) bool {
	return r != nil && r.Header.Get(hxRequestHeader) == "true"
}

// isHistoryRestore reports whether HTMX is restoring a page on back/forward.
func isHistoryRestore(r *http.Request) bool {
	return isHTMXRequest(r) && r.Header.Get(hxHistoryRestoreHeader) == "true"
}

func setTrigger(w http.ResponseWriter, events []string) {
	if len(events) == 0 {
		return
	}
	w.Header().Set(hxTriggerHeader, strings.Join(events, ","))
}

// writeRedirect sends HTMX clients an HX-Redirect and everyone else a 302.
func writeRedirect(w http.ResponseWriter, r *http.Request, location string) {
	if isHTMXRequest(r) {
		w.Header().Set(hxRedirectHeader, location)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, location, http.StatusFound)
}
