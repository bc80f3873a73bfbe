package mock

import (
	"net/http"
	"strings"
)

// Handler routes HTTP requests to the appropriate mock API endpoints.
type Handler struct {
	// Server is the mock API service with endpoint handlers.
	Server *APIService
}

// ServeHTTP dispatches incoming HTTP requests based on URL path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/login":
		if h.Server.LoginHandler != nil {
			h.Server.LoginHandler(w, r)
		} else {
			h.Server.defaultLoginHandler(w, r)
		}
	case "/auth/register":
		if h.Server.RegisterHandler != nil {
			h.Server.RegisterHandler(w, r)
		} else {
			h.Server.defaultRegisterHandler(w, r)
		}
	case "/auth/refresh":
		if h.Server.RefreshHandler != nil {
			h.Server.RefreshHandler(w, r)
		} else {
			h.Server.defaultRefreshHandler(w, r)
		}
	case "/auth/logout":
		if h.Server.LogoutHandler != nil {
			h.Server.LogoutHandler(w, r)
		} else {
			h.Server.defaultLogoutHandler(w, r)
		}
	case "/profile":
		if h.Server.ProfileHandler != nil {
			h.Server.ProfileHandler(w, r)
		} else {
			h.Server.defaultProfileHandler(w, r)
		}
	case "/slow":
		h.Server.slowHandler(w, r)
	default:
		if strings.HasPrefix(r.URL.Path, "/status/") {
			h.Server.statusHandler(w, r)
			return
		}
		http.NotFound(w, r)
	}
}
