// Command gowsdctl is the control CLI for the gowsd daemon: it talks to
// gowsd's control surface over the same connect.Client used by any other
// caller, no generated stub required.
package main

import (
	"fmt"
	"os"

	"github.com/gowsd/gowsd/cmd/gowsdctl/commands"
)

func main() {
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
