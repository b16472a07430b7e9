package main

import (
	"github.com/brk3/fifty/cmd"
)

func main() {
	cmd.Execute()
}
