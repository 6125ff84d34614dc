package main

import (
	"fmt"
	"os"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/cmd/impactradar/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
