package main

import (
	"os"

	"bespreking/internal/cli"
	appLog "bespreking/internal/log"
)

const version = "0.1.0"

func main() {
	appLog.Debug("bespreking starting", "version", version)

	root := cli.NewRootCmd()
	root.Version = version
	if err := root.Execute(); err != nil {
		appLog.Sync()
		os.Exit(1)
	}
}
