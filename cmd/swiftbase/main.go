// Command swiftbase is the SwiftBase server binary: an HTTP/WebSocket
// front end over an embedded SQLite document store.
package main

import (
	"os"

	"github.com/swiftbase/swiftbase/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
