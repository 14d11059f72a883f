package main

import (
	"github.com/tracetree/tracetree/internal/cmd"
	"github.com/tracetree/tracetree/internal/log"
)

func main() {
	defer log.RecoverPanic("main", nil)
	cmd.Execute()
}
