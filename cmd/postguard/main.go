package main

import (
	"os"

	"github.com/dshills/postguard/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
