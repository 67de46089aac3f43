package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/dmitrijs2005/fitkeeper/internal/fitctl"
	"github.com/dmitrijs2005/fitkeeper/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	if err := fitctl.Run(ctx, cfg, commandArgs(os.Args[1:]), os.Stdout); err != nil {
		if !errors.Is(err, fitctl.ErrUsage) {
			log.Printf("%v", err)
		}
		os.Exit(1)
	}

}

// commandArgs drops the config flags in front of the command name.
func commandArgs(args []string) []string {
	for i, a := range args {
		if a == "create-admin" || a == "version" || a == "help" {
			return args[i:]
		}
	}
	return args
}
