package mock

import (
	"encoding/json"
	"net/http"
	"strings"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (m *APIService) defaultLoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var input credentials
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		m.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m.mu.Lock()
	password, ok := m.users[input.Username]
	m.mu.Unlock()
	if !ok || password != input.Password {
		m.writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	m.writeSession(w, http.StatusOK, input.Username)
}

func (m *APIService) defaultRegisterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var input credentials
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Username == "" || input.Password == "" {
		m.writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	m.mu.Lock()
	_, exists := m.users[input.Username]
	if !exists {
		m.users[input.Username] = input.Password
	}
	m.mu.Unlock()
	if exists {
		m.writeError(w, http.StatusConflict, "username is already taken")
		return
	}
	m.writeSession(w, http.StatusCreated, input.Username)
}

// defaultRefreshHandler accepts the refresh token from the session cookie or
// from a Bearer header.
func (m *APIService) defaultRefreshHandler(w http.ResponseWriter, r *http.Request) {
	m.refreshCalls.Add(1)
	if m.RefreshHook != nil {
		m.RefreshHook(r)
	}
	if r.Method != http.MethodPost {
		m.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if m.failRefresh.Load() {
		m.writeError(w, http.StatusUnauthorized, "refresh rejected")
		return
	}
	token := refreshTokenOf(r)
	if token == "" {
		m.writeError(w, http.StatusUnauthorized, "missing refresh token")
		return
	}
	if _, err := m.parseJWT(token, refreshTokenType); err != nil {
		m.writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	m.mu.Lock()
	username, ok := m.refreshTokens[token]
	delete(m.refreshTokens, token)
	m.mu.Unlock()
	if !ok {
		m.writeError(w, http.StatusUnauthorized, "refresh token revoked")
		return
	}
	m.writeSession(w, http.StatusOK, username)
}

func (m *APIService) defaultLogoutHandler(w http.ResponseWriter, r *http.Request) {
	if token := refreshTokenOf(r); token != "" {
		m.mu.Lock()
		delete(m.refreshTokens, token)
		m.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: RefreshCookie, Path: "/auth", MaxAge: -1, HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}

func (m *APIService) writeSession(w http.ResponseWriter, status int, username string) {
	access, refresh, err := m.issue(username)
	if err != nil {
		m.writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: RefreshCookie, Value: refresh, Path: "/auth", HttpOnly: true, MaxAge: 24 * 3600})
	payload := map[string]interface{}{"token": access}
	if !m.CookieOnly {
		payload["refreshToken"] = refresh
	}
	m.writeJSON(w, status, payload)
}

func refreshTokenOf(r *http.Request) string {
	if c, err := r.Cookie(RefreshCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func (m *APIService) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if m.Envelope {
		payload = map[string]interface{}{"data": payload}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (m *APIService) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
