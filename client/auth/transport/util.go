package transport

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/viant/authclient/client/auth/refresh"
)

// readBody drains and closes the request body so it can be replayed.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func clone(r *http.Request, body []byte) *http.Request {
	cloned := r.Clone(r.Context())
	if body != nil {
		cloned.Body = io.NopCloser(bytes.NewReader(body))
		cloned.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		cloned.ContentLength = int64(len(body))
	}
	return cloned
}

// unauthorizedDetail consumes a 401 response and describes the rejection.
func unauthorizedDetail(resp *http.Response) string {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if detail := authenticateError(resp); detail != "" {
		return detail
	}
	return refresh.Message(body)
}

// authenticateError returns the error_description (or error) parameter of a
// Bearer WWW-Authenticate challenge, if any.
func authenticateError(resp *http.Response) string {
	authenticateHeader := resp.Header.Get("WWW-Authenticate")
	authenticateHeader = strings.TrimPrefix(authenticateHeader, "Bearer ")
	var code, description string
	for _, part := range strings.Split(authenticateHeader, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "error_description="):
			description = strings.Trim(strings.TrimPrefix(part, "error_description="), "\"")
		case strings.HasPrefix(part, "error="):
			code = strings.Trim(strings.TrimPrefix(part, "error="), "\"")
		}
	}
	if description != "" {
		return description
	}
	return code
}
