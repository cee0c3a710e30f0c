package main

import (
	"errors"
	"log"
	"os"

	"github.com/blimu-dev/resourcegen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Println(err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
