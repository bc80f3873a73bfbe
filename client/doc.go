// Package client implements a high-level client for the dashboard REST API.
//
// It sends requests through an authenticating http.RoundTripper and adds:
//   - Request descriptors with per-request timeouts and JSON bodies.
//   - Classification of every failure into the apierror taxonomy.
//   - Session helpers: Login, Register and Logout.
//
// Example:
//
//	rt, _ := transport.New(transport.WithRefresher(refresh.New(baseURL + refresh.DefaultPath)))
//	cli := client.New(baseURL, rt, client.WithStore(rt.Store()))
//	resp, err := cli.Send(ctx, &client.Request{Method: http.MethodGet, Path: "/profile"})
//	if err != nil {
//		fmt.Println(apierror.UserMessage(err))
//	}
package client
