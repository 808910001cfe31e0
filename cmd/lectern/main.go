package main

import (
	"github.com/campus-labs/lectern/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
