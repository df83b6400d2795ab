package main

import (
	"os"

	"github.com/deliverybot/discord-tracker/internal/cli"
	"github.com/joho/godotenv"
)

var loadDotEnv = godotenv.Load

func main() {
	// Load .env file (ignore error if file doesn't exist)
	_ = loadDotEnv()

	os.Exit(cli.Execute())
}
