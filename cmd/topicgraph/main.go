// Command topicgraph is the operator CLI: it runs the API server and drives
// generation, expansion, search and export against the configured stores.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
