package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gravitational/trace"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/viant/authclient/client/apierror"
	"github.com/viant/authclient/client/auth/refresh"
	"github.com/viant/authclient/client/auth/store"
	"github.com/viant/authclient/client/auth/transport"
)

const maxResponseSize = 32 << 20

// Request describes an outbound API request.
type Request struct {
	Method string
	// Path is resolved against the client base URL.
	Path   string
	Query  url.Values
	Header http.Header
	// Body is sent as is when it is []byte, string or io.Reader, and as JSON otherwise.
	Body interface{}
	// Timeout overrides the client default.
	Timeout time.Duration
	// Retried marks a request that was already replayed after a refresh.
	Retried bool
}

// Response is a successful API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v interface{}) error {
	return trace.Wrap(json.Unmarshal(r.Body, v))
}

// Get returns the value at a gjson path of the body.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

type Client struct {
	BaseURL    string
	httpClient *http.Client
	store      store.Store
	jar        http.CookieJar
	timeout    time.Duration
	log        logrus.FieldLogger
}

// New creates a client sending requests to baseURL through roundTripper.
func New(baseURL string, roundTripper http.RoundTripper, options ...Option) *Client {
	ret := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		log:     logrus.StandardLogger(),
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.store == nil {
		if rt, ok := roundTripper.(*transport.RoundTripper); ok {
			ret.store = rt.Store()
		} else {
			ret.store = store.NewMemoryStore()
		}
	}
	ret.httpClient = &http.Client{Transport: roundTripper, Jar: ret.jar}
	ret.log = ret.log.WithField("component", "api-client")
	return ret
}

// Store returns the credential store.
func (c *Client) Store() store.Store {
	return c.store
}

func (c *Client) Send(ctx context.Context, request *Request) (*Response, error) {
	attempt := &transport.Attempt{Retried: request.Retried}
	ctx = transport.WithAttempt(ctx, attempt)
	defer func() { request.Retried = attempt.Retried }()
	timeout := request.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	body, err := payload(request.Body)
	if err != nil {
		return nil, err
	}
	method := request.Method
	if method == "" {
		method = http.MethodGet
	}
	httpRequest, err := http.NewRequestWithContext(ctx, method, c.url(request), body)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	for k, v := range request.Header {
		httpRequest.Header[k] = v
	}
	if httpRequest.Header.Get("Accept") == "" {
		httpRequest.Header.Set("Accept", "application/json")
	}
	if body != nil && httpRequest.Header.Get("Content-Type") == "" {
		httpRequest.Header.Set("Content-Type", "application/json")
	}

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, classify(err)
	}
	defer httpResponse.Body.Close()
	data, err := io.ReadAll(io.LimitReader(httpResponse.Body, maxResponseSize))
	if err != nil {
		return nil, classify(err)
	}
	log := c.log.WithFields(logrus.Fields{"method": method, "path": request.Path, "status": httpResponse.StatusCode})
	switch status := httpResponse.StatusCode; {
	case status == http.StatusUnauthorized:
		log.Debug("Request unauthorized")
		return nil, apierror.NewAuthError("unauthorized", status, nil)
	case status >= 500:
		log.Debug("Server error")
		return nil, &apierror.ServerError{Status: status, Message: refresh.Message(data)}
	case status >= 400:
		log.Debug("Request rejected")
		return nil, &apierror.RequestError{Status: status, Message: refresh.Message(data)}
	}
	return &Response{StatusCode: httpResponse.StatusCode, Header: httpResponse.Header, Body: data}, nil
}

func (c *Client) url(request *Request) string {
	URL := c.BaseURL + "/" + strings.TrimLeft(request.Path, "/")
	if len(request.Query) > 0 {
		URL += "?" + request.Query.Encode()
	}
	return URL
}

func payload(body interface{}) (io.Reader, error) {
	switch actual := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(actual), nil
	case string:
		return strings.NewReader(actual), nil
	case io.Reader:
		return actual, nil
	default:
		data, err := json.Marshal(actual)
		if err != nil {
			return nil, trace.BadParameter("failed to encode request body: %v", err)
		}
		return bytes.NewReader(data), nil
	}
}

// classify maps a transport failure to the error taxonomy.
func classify(err error) error {
	var authErr *apierror.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &apierror.TimeoutError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &apierror.TimeoutError{Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &apierror.TimeoutError{Err: err}
	}
	return &apierror.NetworkError{Err: err}
}
