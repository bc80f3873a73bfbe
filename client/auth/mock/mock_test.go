package mock

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func post(t *testing.T, URL string, payload interface{}, header http.Header) (*http.Response, []byte) {
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, URL, bytes.NewReader(data))
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func getProfile(t *testing.T, URL, token string) *http.Response {
	req, err := http.NewRequest(http.MethodGet, URL+"/profile", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestHTTPTestServerSession(t *testing.T) {
	server, err := NewHTTPTestServer(WithUser("alice", "secret"))
	require.NoError(t, err)
	defer server.Close()

	resp, _ := post(t, server.URL+"/auth/login", map[string]string{"username": "alice", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := post(t, server.URL+"/auth/login", map[string]string{"username": "alice", "password": "secret"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	access := gjson.GetBytes(body, "token").String()
	refresh := gjson.GetBytes(body, "refreshToken").String()
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	assert.Equal(t, http.StatusOK, getProfile(t, server.URL, access).StatusCode)
	server.Expire()
	assert.Equal(t, http.StatusUnauthorized, getProfile(t, server.URL, access).StatusCode)
	assert.Equal(t, 1, server.Unauthorized())

	header := http.Header{"Authorization": []string{"Bearer " + refresh}}
	resp, body = post(t, server.URL+"/auth/refresh", struct{}{}, header)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	renewed := gjson.GetBytes(body, "token").String()
	assert.Equal(t, http.StatusOK, getProfile(t, server.URL, renewed).StatusCode)

	// refresh tokens rotate
	resp, _ = post(t, server.URL+"/auth/refresh", struct{}{}, header)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 2, server.RefreshCalls())
}

func TestHTTPTestServerEnvelope(t *testing.T) {
	server, err := NewHTTPTestServer(WithEnvelope(true), WithoutRefreshToken())
	require.NoError(t, err)
	defer server.Close()

	resp, body := post(t, server.URL+"/auth/register", map[string]string{"username": "bob", "password": "pw"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, gjson.GetBytes(body, "data.token").String())
	assert.False(t, gjson.GetBytes(body, "data.refreshToken").Exists())
	require.Len(t, resp.Cookies(), 1)
	assert.Equal(t, RefreshCookie, resp.Cookies()[0].Name)

	resp, _ = post(t, server.URL+"/auth/register", map[string]string{"username": "bob", "password": "pw"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
