package main

import (
	"log"

	"ventbot/app"
	"ventbot/core/cmd"
)

func main() {
	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("ventbot: %v", err)
	}
}
