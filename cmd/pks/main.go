package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
)

func main() {
	if err := newRootCmd().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
