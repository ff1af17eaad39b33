package main

import (
	"github.com/teemow/gcal/cmd"
)

// version is set with -ldflags "-X main.version=..." at release time.
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
