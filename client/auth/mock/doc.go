// Package mock provides an in-process API server that facilitates testing of
// the authenticated client.
//
// The server exposes the session endpoints (login, register, refresh, logout)
// and a protected /profile resource. Access tokens are RS256 JWTs; Expire
// invalidates every access token issued so far, so tests can force the
// refresh path without waiting for real expiry.
package mock
