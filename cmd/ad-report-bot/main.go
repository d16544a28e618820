package main

import (
	"ad-report-bot/internal/cli"
)

func main() {
	cli.Execute()
}
