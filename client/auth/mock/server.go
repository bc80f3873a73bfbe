package mock

import "net/http/httptest"

type HTTPTestServer struct {
	*APIService
	Server *httptest.Server
	URL    string
}

func NewHTTPTestServer(opts ...Option) (*HTTPTestServer, error) {
	service, err := NewAPIService(opts...)
	if err != nil {
		return nil, err
	}
	server := &HTTPTestServer{
		APIService: service,
	}
	server.Server = httptest.NewServer(service.Handler())
	service.Issuer = server.Server.URL
	server.URL = server.Server.URL
	return server, nil
}

func (s *HTTPTestServer) Close() {
	if s.Server != nil {
		s.Server.Close()
	}
	s.Server = nil
}
