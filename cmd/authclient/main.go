// Command authclient sends requests to the dashboard API as the logged in user.
//
// Usage:
//
//	authclient -u http://localhost:8080 -s file --store-url file://localhost/tmp/authclient login -U alice
//	authclient -u http://localhost:8080 -s file --store-url file://localhost/tmp/authclient send /profile
//	authclient -u http://localhost:8080 -s file --store-url file://localhost/tmp/authclient send -X PUT -d '{"theme":"dark"}' /profile
//
// Options may also come from a YAML config (-c) and AUTHCLIENT_* variables.
package main

import (
	"log"
	"os"

	"github.com/viant/authclient/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
