package main

import (
	_ "embed"

	"github.com/thingspace/thingspace-notes/cmd"
)

//go:embed config/config.yaml
var c string

func main() {
	cmd.Execute(c)
}
