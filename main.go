package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/harrisonrobin/sonrisas/pkg/cli"
)

var version = "dev"

func main() {
	// .env fills in SONRISAS_* variables that are not already set
	if envMap, err := godotenv.Read(); err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
