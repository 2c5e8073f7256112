package main

import (
	"os"

	"github.com/JonMunkholm/adifgen/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
