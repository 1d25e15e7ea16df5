package main

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"

	"github.com/ystepanoff/nrflink/cmd/nrflink/cmd"
)

func main() {
	defer memguard.Purge()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		memguard.SafeExit(1)
	}
}
