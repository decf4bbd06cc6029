package main

import (
	"github.com/emundo/emubot/cmd"
)

func main() {
	cmd.Execute()
}
