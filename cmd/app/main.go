// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"log"
	"os"

	"github.com/hireloop/hireloop/internal/config"
	"github.com/hireloop/hireloop/internal/server"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:   "hireloop",
		Usage:  "Start the Hireloop auth service",
		Flags:  config.Flags(),
		Action: server.Run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
