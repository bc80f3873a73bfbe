// Package authclient provides a client for the dashboard REST API that sends
// every request as the authenticated user.
//
// The package glues the session components found under client/auth (credential
// store, refresh client, notification bus, authenticating transport) into one
// configured client. NewClient accepts a ClientOptions structure that can be
// populated from YAML, the environment or CLI flags:
//
//	options, _ := authclient.LoadOptions(ctx, "file://localhost/etc/authclient.yaml")
//	cli, _ := authclient.NewClient(ctx, options)
//	defer cli.Close()
//	cli.Bus.Subscribe(func(ctx context.Context, event notify.Event) error {
//		fmt.Println("please log in again:", event.Reason)
//		return nil
//	})
//	resp, err := cli.Send(ctx, &client.Request{Path: "/profile"})
//
// Concurrent requests whose access token expired share a single refresh of
// the session and are replayed once with the new token.
package authclient
