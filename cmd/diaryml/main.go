package main

import (
	"os"

	"github.com/wedsmoker/DiaryML/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
