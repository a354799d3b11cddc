package main

import (
	"fmt"
	"os"

	"github.com/roach88/ubt/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil && !cli.IsReported(err) {
		fmt.Fprintf(os.Stderr, "%s\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
