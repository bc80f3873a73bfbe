package client

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/authclient/client/apierror"
	"github.com/viant/authclient/client/auth/mock"
	"github.com/viant/authclient/client/auth/refresh"
	"github.com/viant/authclient/client/auth/store"
	"github.com/viant/authclient/client/auth/transport"
)

func newTestClient(t *testing.T, opts ...mock.Option) (*Client, *mock.HTTPTestServer) {
	server, err := mock.NewHTTPTestServer(append([]mock.Option{mock.WithUser("alice", "secret")}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(server.Close)
	rt, err := transport.New(transport.WithRefresher(refresh.New(server.URL + refresh.DefaultPath)))
	require.NoError(t, err)
	return New(server.URL, rt, WithTimeout(5*time.Second)), server
}

func TestClient_Session(t *testing.T) {
	ctx := context.Background()
	cli, server := newTestClient(t)

	creds, err := cli.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	stored, _ := cli.Store().Get(ctx, store.AccessTokenKey)
	assert.Equal(t, creds.AccessToken, stored)

	resp, err := cli.Send(ctx, &Request{Method: http.MethodGet, Path: "/profile"})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Get("username").String())

	// expired access token is refreshed transparently
	server.Expire()
	resp, err = cli.Send(ctx, &Request{Method: http.MethodPut, Path: "profile", Body: map[string]string{"theme": "dark"}})
	require.NoError(t, err)
	var profile struct {
		Username string            `json:"username"`
		Echo     map[string]string `json:"echo"`
	}
	require.NoError(t, resp.Decode(&profile))
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "dark", profile.Echo["theme"])
	assert.Equal(t, 1, server.RefreshCalls())

	require.NoError(t, cli.Logout(ctx))
	_, ok := cli.Store().Get(ctx, store.AccessTokenKey)
	assert.False(t, ok)
	_, ok = cli.Store().Get(ctx, store.RefreshTokenKey)
	assert.False(t, ok)

	// logged out: no refresh credential left, the session cannot recover
	_, err = cli.Send(ctx, &Request{Path: "/profile"})
	assert.True(t, apierror.IsAuth(err), "%v", err)
	assert.Equal(t, "session expired, please log in again", apierror.UserMessage(err))
}

func TestClient_LoginRejected(t *testing.T) {
	ctx := context.Background()
	cli, _ := newTestClient(t)

	_, err := cli.Login(ctx, "alice", "wrong")
	var requestErr *apierror.RequestError
	require.ErrorAs(t, err, &requestErr)
	assert.Equal(t, http.StatusUnauthorized, requestErr.Status)
	assert.Equal(t, "invalid username or password", apierror.UserMessage(err))

	_, err = cli.Register(ctx, "alice", "other")
	require.ErrorAs(t, err, &requestErr)
	assert.Equal(t, http.StatusConflict, requestErr.Status)
	assert.Equal(t, "username is already taken", requestErr.Message)

	creds, err := cli.Register(ctx, "bob", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, creds.RefreshToken)
}

func TestClient_Classification(t *testing.T) {
	ctx := context.Background()
	cli, server := newTestClient(t, mock.WithEnvelope(true))
	_, err := cli.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	_, err = cli.Send(ctx, &Request{Path: "/status/503"})
	var serverErr *apierror.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusServiceUnavailable, serverErr.Status)
	assert.Equal(t, "something went wrong on our side, please try again later", apierror.UserMessage(err))

	_, err = cli.Send(ctx, &Request{Path: "/status/422"})
	var requestErr *apierror.RequestError
	require.ErrorAs(t, err, &requestErr)
	assert.Equal(t, "status 422 requested", apierror.UserMessage(err))

	resp, err := cli.Send(ctx, &Request{Path: "/status/202"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.EqualValues(t, 202, resp.Get("data.status").Int())

	_, err = cli.Send(ctx, &Request{Path: "/slow", Query: map[string][]string{"delay": {"2s"}}, Timeout: 50 * time.Millisecond})
	assert.True(t, apierror.IsTimeout(err), "%v", err)

	URL := server.URL
	server.Close()
	offline := New(URL, http.DefaultTransport)
	_, err = offline.Send(ctx, &Request{Path: "/profile"})
	assert.True(t, apierror.IsNetwork(err), "%v", err)
}

func TestClient_RetriedRequestIsTerminal(t *testing.T) {
	ctx := context.Background()
	cli, server := newTestClient(t)
	_, err := cli.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	server.Expire()

	_, err = cli.Send(ctx, &Request{Path: "/profile", Retried: true})
	assert.True(t, apierror.IsAuth(err))
	assert.Equal(t, 0, server.RefreshCalls())
}

func TestClient_MarksRequestRetried(t *testing.T) {
	ctx := context.Background()
	cli, server := newTestClient(t)
	_, err := cli.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	server.Expire()

	request := &Request{Path: "/profile"}
	_, err = cli.Send(ctx, request)
	require.NoError(t, err)
	assert.True(t, request.Retried)
	assert.Equal(t, 1, server.RefreshCalls())

	// the same descriptor is never refreshed and replayed twice
	server.Expire()
	_, err = cli.Send(ctx, request)
	assert.True(t, apierror.IsAuth(err), "%v", err)
	assert.Equal(t, 1, server.RefreshCalls())

	fresh := &Request{Path: "/status/200"}
	_, err = cli.Send(ctx, fresh)
	require.NoError(t, err)
	assert.False(t, fresh.Retried)
}

func TestClient_Cancelled(t *testing.T) {
	cli, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cli.Send(ctx, &Request{Path: "/profile"})
	assert.True(t, apierror.IsTimeout(err), "%v", err)
	assert.True(t, errors.Is(err, context.Canceled), "%v", err)
}
