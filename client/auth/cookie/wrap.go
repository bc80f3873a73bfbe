// Package cookie carries same-origin session cookies for callers that use an
// http.RoundTripper directly instead of an http.Client.
package cookie

import (
	"net/http"
)

// roundTripper attaches cookies from a Jar before delegating to the inner
// RoundTripper, and stores response cookies back into the Jar.
type roundTripper struct {
	inner http.RoundTripper
	jar   http.CookieJar
}

// Wrap wraps inner so that cookies from jar are sent and updated on each
// request/response. A nil jar returns inner unchanged.
func Wrap(inner http.RoundTripper, jar http.CookieJar) http.RoundTripper {
	if jar == nil || inner == nil {
		return inner
	}
	return &roundTripper{inner: inner, jar: jar}
}

func (w *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone req to avoid mutating caller headers
	clone := req.Clone(req.Context())
	for _, c := range w.jar.Cookies(clone.URL) {
		clone.AddCookie(c)
	}
	resp, err := w.inner.RoundTrip(clone)
	if err != nil {
		return nil, err
	}
	if cookies := resp.Cookies(); len(cookies) > 0 {
		w.jar.SetCookies(clone.URL, cookies)
	}
	return resp, nil
}
