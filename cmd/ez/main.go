package main

import (
	"os"

	"github.com/Sanskargoyal608/Eziii/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
