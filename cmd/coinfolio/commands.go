package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"google.golang.org/protobuf/types/known/structpb"
)

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
	return subcommands.ExitFailure
}

type holdingsCmd struct{}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "list the portfolio holdings and totals" }
func (*holdingsCmd) Usage() string {
	return `coinfolio holdings

  Lists every holding with its value and profit and loss in the display currency.
`
}
func (*holdingsCmd) SetFlags(*flag.FlagSet) {}

func (c *holdingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, client, done, err := dial(ctx)
	if err != nil {
		return fail(err)
	}
	defer done()

	resp, err := client.GetPortfolio(ctx, nil)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderPortfolio(resp.Fields["portfolio"].GetStructValue()))
	return subcommands.ExitSuccess
}

type addCmd struct {
	coin   string
	amount string
	price  string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a holding" }
func (*addCmd) Usage() string {
	return `coinfolio add -coin <id> -amount <n> -price <purchase price>

  Adds a holding priced at the current market price.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.coin, "coin", "", "coin id, e.g. bitcoin")
	f.StringVar(&c.amount, "amount", "", "number of units held")
	f.StringVar(&c.price, "price", "", "purchase price per unit in the display currency")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.coin == "" || c.amount == "" || c.price == "" {
		fmt.Fprintln(os.Stderr, "Error: -coin, -amount and -price are required")
		return subcommands.ExitUsageError
	}
	ctx, client, done, err := dial(ctx)
	if err != nil {
		return fail(err)
	}
	defer done()

	resp, err := client.AddHolding(ctx, &structpb.Struct{Fields: map[string]*structpb.Value{
		"coin_id":        structpb.NewStringValue(c.coin),
		"amount":         structpb.NewStringValue(c.amount),
		"purchase_price": structpb.NewStringValue(c.price),
	}})
	if err != nil {
		return fail(err)
	}

	h := resp.Fields["holding"].GetStructValue()
	fmt.Printf("Added %s %s (%s)\n", text(h, "amount"), text(h, "coin_name"), text(h, "id"))
	return subcommands.ExitSuccess
}

type removeCmd struct{}

func (*removeCmd) Name() string     { return "remove" }
func (*removeCmd) Synopsis() string { return "remove a holding by id" }
func (*removeCmd) Usage() string {
	return `coinfolio remove <holding id>
`
}
func (*removeCmd) SetFlags(*flag.FlagSet) {}

func (c *removeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one holding id")
		return subcommands.ExitUsageError
	}
	ctx, client, done, err := dial(ctx)
	if err != nil {
		return fail(err)
	}
	defer done()

	if _, err := client.RemoveHolding(ctx, &structpb.Struct{Fields: map[string]*structpb.Value{
		"id": structpb.NewStringValue(f.Arg(0)),
	}}); err != nil {
		return fail(err)
	}
	fmt.Printf("Removed %s\n", f.Arg(0))
	return subcommands.ExitSuccess
}

type projectCmd struct{}

func (*projectCmd) Name() string     { return "project" }
func (*projectCmd) Synopsis() string { return "show the projected portfolio value at every horizon" }
func (*projectCmd) Usage() string {
	return `coinfolio project

  Shows the 24h and 7d projected totals. Holdings without a forecast keep their current value.
`
}
func (*projectCmd) SetFlags(*flag.FlagSet) {}

func (c *projectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, client, done, err := dial(ctx)
	if err != nil {
		return fail(err)
	}
	defer done()

	resp, err := client.GetProjections(ctx, nil)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderProjections(resp))
	return subcommands.ExitSuccess
}

type currencyCmd struct{}

func (*currencyCmd) Name() string     { return "currency" }
func (*currencyCmd) Synopsis() string { return "switch the display currency" }
func (*currencyCmd) Usage() string {
	return `coinfolio currency <code>

  Switches the display currency, e.g. "coinfolio currency eur".
`
}
func (*currencyCmd) SetFlags(*flag.FlagSet) {}

func (c *currencyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one currency code")
		return subcommands.ExitUsageError
	}
	ctx, client, done, err := dial(ctx)
	if err != nil {
		return fail(err)
	}
	defer done()

	resp, err := client.SetCurrency(ctx, &structpb.Struct{Fields: map[string]*structpb.Value{
		"currency": structpb.NewStringValue(f.Arg(0)),
	}})
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderPortfolio(resp.Fields["portfolio"].GetStructValue()))
	return subcommands.ExitSuccess
}

type previewCmd struct {
	coin   string
	amount string
	price  string
}

func (*previewCmd) Name() string     { return "preview" }
func (*previewCmd) Synopsis() string { return "value and forecast a holding before adding it" }
func (*previewCmd) Usage() string {
	return `coinfolio preview -coin <id> -amount <n> [-price <purchase price>]
`
}

func (c *previewCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.coin, "coin", "", "coin id, e.g. bitcoin")
	f.StringVar(&c.amount, "amount", "", "number of units")
	f.StringVar(&c.price, "price", "", "purchase price per unit (optional)")
}

func (c *previewCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.coin == "" || c.amount == "" {
		fmt.Fprintln(os.Stderr, "Error: -coin and -amount are required")
		return subcommands.ExitUsageError
	}
	ctx, client, done, err := dial(ctx)
	if err != nil {
		return fail(err)
	}
	defer done()

	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"coin_id": structpb.NewStringValue(c.coin),
		"amount":  structpb.NewStringValue(c.amount),
	}}
	if c.price != "" {
		req.Fields["purchase_price"] = structpb.NewStringValue(c.price)
	}

	resp, err := client.PreviewHolding(ctx, req)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderPreview(resp, c.amount))
	return subcommands.ExitSuccess
}
