package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gravitational/trace"
	"github.com/jessevdk/go-flags"

	"github.com/viant/authclient"
	"github.com/viant/authclient/client"
	"github.com/viant/authclient/client/apierror"
	"github.com/viant/authclient/client/auth/notify"
	"github.com/viant/authclient/client/auth/store"
)

func Run(args []string) error {
	return run(context.Background(), args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	options := &Options{}
	parser := flags.NewParser(options, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return err
	}
	clientOptions, err := authclient.LoadOptions(ctx, options.Config)
	if err != nil {
		return err
	}
	options.apply(clientOptions)
	cli, err := authclient.NewClient(ctx, clientOptions)
	if err != nil {
		return err
	}
	defer cli.Close()
	cli.Bus.Subscribe(func(ctx context.Context, event notify.Event) error {
		_, err := fmt.Fprintf(stderr, "unauthenticated: %v\n", event.Reason)
		return err
	})

	switch parser.Active.Name {
	case "send":
		err = options.Send.run(ctx, cli.Client, stdout)
	case "login":
		_, err = cli.Login(ctx, options.Login.Username, options.Login.Password)
		if err == nil {
			_, err = fmt.Fprintln(stdout, "logged in as", options.Login.Username)
		}
	case "register":
		_, err = cli.Register(ctx, options.Register.Username, options.Register.Password)
		if err == nil {
			_, err = fmt.Fprintln(stdout, "registered", options.Register.Username)
		}
	case "logout":
		if err = cli.Logout(ctx); err == nil {
			_, err = fmt.Fprintln(stdout, "logged out")
		}
	case "status":
		err = status(ctx, cli.Credentials, stdout)
	}
	if err != nil && apierror.IsAPIError(err) {
		return trace.Wrap(err, apierror.UserMessage(err))
	}
	return err
}

func (o *Options) apply(clientOptions *authclient.ClientOptions) {
	if o.URL != "" {
		clientOptions.BaseURL = o.URL
	}
	if o.LogLevel != "" {
		clientOptions.LogLevel = o.LogLevel
	}
	if o.Store != "" {
		clientOptions.Store.Kind = o.Store
	}
	if o.StoreURL != "" {
		clientOptions.Store.URL = o.StoreURL
	}
}

func (s *SendCommand) run(ctx context.Context, cli *client.Client, stdout io.Writer) error {
	request := &client.Request{
		Method:  strings.ToUpper(s.Method),
		Path:    s.Args.Path,
		Header:  http.Header{},
		Timeout: s.Timeout,
	}
	if s.Data != "" {
		request.Body = s.Data
	}
	for _, header := range s.Header {
		name, value, ok := strings.Cut(header, ":")
		if !ok {
			return trace.BadParameter("invalid header %q, expected name: value", header)
		}
		request.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	resp, err := cli.Send(ctx, request)
	if err != nil {
		return err
	}
	_, err = stdout.Write(resp.Body)
	return err
}

func status(ctx context.Context, credentials *store.CredentialStore, stdout io.Writer) error {
	token, err := credentials.TokenSource(ctx).Token()
	if trace.IsNotFound(err) {
		_, err = fmt.Fprintln(stdout, "not logged in")
		return err
	}
	if err != nil {
		return err
	}
	line := "access token: present"
	if !token.Expiry.IsZero() {
		line += fmt.Sprintf(", expires %v", token.Expiry.Format(time.RFC3339))
		if !token.Valid() {
			line += " (expired)"
		}
	}
	refreshState := "absent"
	if token.RefreshToken != "" {
		refreshState = "present"
	}
	_, err = fmt.Fprintf(stdout, "%v\nrefresh token: %v\n", line, refreshState)
	return err
}
