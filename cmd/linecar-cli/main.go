package main

import (
	"github.com/robotalks/linecar/pkg/cli/sh"

	_ "github.com/robotalks/linecar/pkg/cli/cmds/trajectory"
)

//go-build: CGO_ENABLED=0

func main() {
	sh.Main()
}
