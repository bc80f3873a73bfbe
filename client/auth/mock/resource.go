package mock

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// defaultProfileHandler simulates a protected resource at /profile. GET
// returns the caller identity, other methods echo the request body.
func (m *APIService) defaultProfileHandler(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		m.unauthorizedResponse(w, "missing bearer token")
		return
	}
	claims, err := m.validAccess(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		m.unauthorizedResponse(w, err.Error())
		return
	}
	payload := map[string]interface{}{
		"username": claims["sub"],
		"tokenId":  claims["jti"],
	}
	if r.Method != http.MethodGet {
		body, _ := io.ReadAll(r.Body)
		var echo interface{}
		if err := json.Unmarshal(body, &echo); err != nil {
			m.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		payload["echo"] = echo
	}
	m.writeJSON(w, http.StatusOK, payload)
}

func (m *APIService) unauthorizedResponse(w http.ResponseWriter, description string) {
	m.unauthorized.Add(1)
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm=%q, error="invalid_token", error_description=%q`, m.Issuer, description))
	m.writeError(w, http.StatusUnauthorized, description)
}

// statusHandler answers /status/{code} with code and a message.
func (m *APIService) statusHandler(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/status/"))
	if err != nil || code < 100 || code > 599 {
		m.writeError(w, http.StatusBadRequest, "invalid status code")
		return
	}
	if code < 300 {
		m.writeJSON(w, code, map[string]int{"status": code})
		return
	}
	m.writeError(w, code, fmt.Sprintf("status %d requested", code))
}

// slowHandler waits for ?delay= (a time.Duration) unless the request ends first.
func (m *APIService) slowHandler(w http.ResponseWriter, r *http.Request) {
	delay, _ := time.ParseDuration(r.URL.Query().Get("delay"))
	select {
	case <-time.After(delay):
		m.writeJSON(w, http.StatusOK, map[string]string{"delay": delay.String()})
	case <-r.Context().Done():
	}
}
