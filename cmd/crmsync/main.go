/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"fmt"
	"os"

	"github.com/cristianoliveira/crmsync/cmd"
	"github.com/cristianoliveira/crmsync/internal/colors"
	"github.com/cristianoliveira/crmsync/internal/config"
	"github.com/cristianoliveira/crmsync/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	config.Load()
	if config.GetBool("debug", false) {
		colors.SetDebug(true)
	}
	if err := logging.InitGlobal(); err != nil {
		colors.Warning(fmt.Sprintf("logging disabled: %v", err))
	}
	defer func() { _ = logging.ShutdownGlobal() }()

	deps, err := buildCLIDeps()
	if err != nil {
		colors.Error(err.Error())
		return 1
	}
	defer deps.Close()

	registerCommands(cmd.RootCmd, deps)
	logging.Debug("startup", "args", os.Args[1:])
	if err := cmd.Execute(); err != nil {
		colors.Error(err.Error())
		return 1
	}
	return 0
}
