package main

import (
	"os"

	"github.com/fatih/color"
)

var (
	pass  = color.New(color.FgGreen, color.Bold).SprintFunc()
	fail  = color.New(color.FgRed, color.Bold).SprintFunc()
	warn  = color.New(color.FgYellow).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
)

func init() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		color.NoColor = true
	}
}
