package cli

import "time"

type Options struct {
	Config   string `short:"c" long:"config" description:"config file url (yaml)"`
	URL      string `short:"u" long:"url" description:"api base url"`
	LogLevel string `short:"l" long:"log-level" description:"log level"`
	Store    string `short:"s" long:"store" description:"credential store kind" choice:"memory" choice:"file" choice:"sqlite" choice:"diskv"`
	StoreURL string `long:"store-url" description:"credential store location"`

	Send     SendCommand    `command:"send" description:"send a request as the authenticated user"`
	Login    AccountCommand `command:"login" description:"open a session"`
	Register AccountCommand `command:"register" description:"create an account and open a session"`
	Logout   LogoutCommand  `command:"logout" description:"end the session"`
	Status   StatusCommand  `command:"status" description:"show the stored session"`
}

type SendCommand struct {
	Method  string        `short:"X" long:"request" description:"http method" default:"GET"`
	Data    string        `short:"d" long:"data" description:"request body"`
	Header  []string      `short:"H" long:"header" description:"request header, name: value"`
	Timeout time.Duration `short:"t" long:"timeout" description:"request timeout"`
	Args    struct {
		Path string `positional-arg-name:"path" required:"true"`
	} `positional-args:"yes"`
}

type AccountCommand struct {
	Username string `short:"U" long:"username" description:"username" required:"true"`
	Password string `short:"P" long:"password" description:"password" env:"AUTHCLIENT_PASSWORD"`
}

type LogoutCommand struct{}

type StatusCommand struct{}
