// Package main provides the entry point for the attest checksum CLI.
package main

import (
	"errors"
	"os"
)

// errVerifyFailed signals a completed verify run that found mismatches.
// It maps to a distinct exit code so scripts can tell integrity failures
// apart from operational errors.
var errVerifyFailed = errors.New("verification failed")

func main() {
	if err := Execute(); err != nil {
		if errors.Is(err, errVerifyFailed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
