// Command todox serves the to-do list and runs its maintenance commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/todox/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		// Exit errors have already been written through the output formatter.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	os.Exit(cli.GetExitCode(err))
}
