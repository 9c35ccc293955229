package main

import (
	"fmt"
	"os"

	"github.com/coinledger/bnc/internal/buildinfo"
	"github.com/coinledger/bnc/internal/commands"
)

func main() {
	info := buildinfo.Current()
	if err := commands.NewRootCommand(info).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", info.Name, err)
		os.Exit(1)
	}
}
