package main

import (
	"os"

	"github.com/bfix/sysdyn/cmd/sysdyn/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
