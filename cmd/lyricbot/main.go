package main

import (
	"github.com/joho/godotenv"

	"github.com/liao/lyric-bot/internal/commands"
)

func main() {
	// .env 可选
	_ = godotenv.Load()
	commands.Execute()
}
