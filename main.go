package main

import (
	"github.com/pyneda/trailscan/cmd"
	"github.com/pyneda/trailscan/internal/config"
)

func main() {
	config.LoadConfig()
	cmd.Execute()
}
