package main

import (
	"log"

	"discuss/internal/cli"
)

func main() {
	discussCmd := cli.NewCommand()
	if err := discussCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
