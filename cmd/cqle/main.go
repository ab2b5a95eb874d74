package main

import (
	"context"
	"os"

	"github.com/kzaag/cqlengine/cmn"
	"github.com/kzaag/cqlengine/target"
	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

var version string

func main() {
	app := kingpin.New("cqle", "Cassandra schema sync and statement runner")
	app.Version(version)
	app.HelpFlag.Short('h')

	args, err := target.ParseArgs(app, os.Args[1:])
	if err != nil {
		app.FatalUsage("%v\n", err)
	}

	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	log.SetLevel(log.WarnLevel)
	if args.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	printer := cmn.NewPrinter(args.Raw)

	c, err := target.NewConfigFromPath(args.ConfigPath, args.Set)
	if err != nil {
		printer.Error(err)
		os.Exit(1)
	}

	runner := target.NewRunner(args)
	runner.Printer = printer
	if err = runner.ExecConfig(context.Background(), c); err != nil {
		printer.Error(err)
		os.Exit(1)
	}
}
