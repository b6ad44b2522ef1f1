package main

import (
	"fmt"
	"os"
)

// Exit codes per spec §6: 0 success, 1 an explained failure already
// reported to stderr, nonzero (2) for an uncaught programming error.
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
