package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/pawankumargali/pnl-tracker/internal/domain"
	"github.com/pawankumargali/pnl-tracker/internal/utils"
)

// tradesCmd holds the flags for the 'trades' subcommand.
type tradesCmd struct {
	csvPath string
}

func (*tradesCmd) Name() string     { return "trades" }
func (*tradesCmd) Synopsis() string { return "list the trade ledger in insertion order" }
func (*tradesCmd) Usage() string {
	return `pnlctl trades [-csv <file>]

  Prints every recorded trade, or writes them to a CSV file.
`
}

func (c *tradesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.csvPath, "csv", "", "write the ledger to this CSV file instead of stdout")
}

func (c *tradesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, closeFn, err := openService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	trades, err := svc.ListTrades(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading trades: %s\n", describe(err))
		return subcommands.ExitFailure
	}

	if c.csvPath != "" {
		if err := utils.WriteTradesToCSV(trades, c.csvPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", c.csvPath, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("%d trades written to %s\n", len(trades), c.csvPath)
		return subcommands.ExitSuccess
	}

	printTrades(os.Stdout, trades)
	return subcommands.ExitSuccess
}

func printTrades(w io.Writer, trades []domain.Trade) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "REF\tID\tTIME\tSYMBOL\tSIDE\tPRICE\tQUANTITY\tFEE\t")
	for _, t := range trades {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			t.RefID, t.ID, t.Timestamp.Format("2006-01-02 15:04:05"), t.Symbol, t.Side,
			t.Price.StringFixed(domain.Precision), t.Quantity.StringFixed(domain.Precision), t.Fee.StringFixed(domain.Precision))
	}
	tw.Flush()
}

// positionsCmd implements the 'positions' subcommand.
type positionsCmd struct{}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "show open positions at average cost" }
func (*positionsCmd) Usage() string {
	return `pnlctl positions

  Prints every open position sorted by symbol.
`
}

func (*positionsCmd) SetFlags(*flag.FlagSet) {}

func (*positionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, closeFn, err := openService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	positions, err := svc.ListPositions(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading positions: %s\n", describe(err))
		return subcommands.ExitFailure
	}
	printPositions(os.Stdout, positions)
	return subcommands.ExitSuccess
}

func printPositions(w io.Writer, positions []domain.Position) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "SYMBOL\tQUANTITY\tAVG PRICE\tTOTAL COST\tREALIZED\t")
	for _, p := range positions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", p.Symbol,
			p.Quantity.StringFixed(domain.Precision), p.AveragePrice.StringFixed(domain.Precision),
			p.TotalCost.StringFixed(domain.Precision), p.RealizedPnL.StringFixed(domain.Precision))
	}
	tw.Flush()
}

// pnlCmd implements the 'pnl' subcommand.
type pnlCmd struct{}

func (*pnlCmd) Name() string     { return "pnl" }
func (*pnlCmd) Synopsis() string { return "show realized and unrealized PnL at current prices" }
func (*pnlCmd) Usage() string {
	return `pnlctl pnl

  Values every open position with the configured price source.
`
}

func (*pnlCmd) SetFlags(*flag.FlagSet) {}

func (*pnlCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, closeFn, err := openService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	summary, err := svc.GetPnLSummary(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing PnL: %s\n", describe(err))
		return subcommands.ExitFailure
	}
	printSummary(os.Stdout, summary)
	return subcommands.ExitSuccess
}

func printSummary(w io.Writer, s *domain.PnLSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "SYMBOL\tQUANTITY\tAVG PRICE\tPRICE\tVALUE\tUNREALIZED\t%\t")
	for _, p := range s.Positions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", p.Symbol,
			p.Quantity.StringFixed(domain.Precision), p.AveragePrice.StringFixed(domain.Precision),
			p.CurrentPrice.StringFixed(domain.Precision), p.CurrentValue.StringFixed(domain.Precision),
			p.UnrealizedPnL.StringFixed(domain.Precision), p.UnrealizedPnLPercentage.StringFixed(domain.PercentPrecision))
	}
	tw.Flush()
	fmt.Fprintf(w, "\nRealized PnL:   %s %s\n", s.RealizedPnL.StringFixed(domain.Precision), s.Currency)
	fmt.Fprintf(w, "Unrealized PnL: %s %s\n", s.UnrealizedPnL.StringFixed(domain.Precision), s.Currency)
}
