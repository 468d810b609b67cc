package main

import (
	"fmt"
	"os"

	"github.com/absfs/saltedfs/internal/cli"
	"github.com/fatih/color"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗")+" "+err.Error())
		os.Exit(1)
	}
}
