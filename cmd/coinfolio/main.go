package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/simaogato/coinfolio-backend/internal/usecase/market"
)

var commands = []subcommands.Command{
	&holdingsCmd{},
	&addCmd{},
	&removeCmd{},
	&projectCmd{},
	&currencyCmd{},
	&previewCmd{},
}

// completion describes the command line for shell completion (COMP_LINE)
func completion() *complete.Command {
	coins := predict.Set(market.DefaultCatalog)
	return &complete.Command{
		Sub: map[string]*complete.Command{
			"holdings": {},
			"add":      {Flags: map[string]complete.Predictor{"coin": coins, "amount": predict.Something, "price": predict.Something}},
			"remove":   {Args: predict.Something},
			"project":  {},
			"currency": {Args: predict.Set{"usd", "eur", "gbp", "jpy", "chf", "cad", "aud"}},
			"preview":  {Flags: map[string]complete.Predictor{"coin": coins, "amount": predict.Something}},
		},
		Flags: map[string]complete.Predictor{
			"addr":  predict.Something,
			"token": predict.Something,
			"plain": predict.Nothing,
		},
	}
}

func main() {
	name := path.Base(os.Args[0])
	completion().Complete(name)

	registerGlobalFlags(flag.CommandLine)
	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
