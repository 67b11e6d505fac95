package main

import (
	"github.com/hsakai/streamzip/cmd"
)

func main() {
	cmd.Execute()
}
