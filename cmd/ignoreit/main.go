package main

import (
	"os"

	"github.com/tormodhaugland/ignoreit/cmd/ignoreit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
