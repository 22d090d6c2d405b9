package main

import (
	"os"
	_ "time/tzdata" // Asia/Kolkata must resolve even without a system zoneinfo

	"github.com/pushpitchhabra/Indian-Markets-dashboard/cmd/premarket/commands"
)

// main is the entry point for the premarket CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
