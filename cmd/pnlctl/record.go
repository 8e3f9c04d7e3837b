package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/pawankumargali/pnl-tracker/internal/domain"
)

// recordCmd holds the flags for the 'record' subcommand.
type recordCmd struct {
	id        int64
	symbol    string
	side      string
	price     string
	quantity  string
	fee       string
	timestamp string
}

func (*recordCmd) Name() string     { return "record" }
func (*recordCmd) Synopsis() string { return "record an executed BUY or SELL trade" }
func (*recordCmd) Usage() string {
	return `pnlctl record -id <n> -symbol <SYM> -side BUY|SELL -price <p> -qty <q> [-fee <f>] [-t <time>]

  Appends a trade to the ledger and updates the position book.
`
}

func (c *recordCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "caller trade id (positive integer)")
	f.StringVar(&c.symbol, "symbol", "", "asset symbol, e.g. BTC")
	f.StringVar(&c.side, "side", "", "BUY or SELL")
	f.StringVar(&c.price, "price", "", "execution price per unit")
	f.StringVar(&c.quantity, "qty", "", "quantity in units")
	f.StringVar(&c.fee, "fee", "0", "fee in the portfolio currency")
	f.StringVar(&c.timestamp, "t", "", "execution time, RFC3339 (default now)")
}

func (c *recordCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in := domain.TradeInput{
		ID:        c.id,
		Symbol:    c.symbol,
		Side:      domain.OrderSide(c.side),
		Timestamp: time.Now().UTC(),
	}

	for _, field := range []struct {
		name  string
		value string
		dst   **decimal.Decimal
	}{
		{"price", c.price, &in.Price},
		{"qty", c.quantity, &in.Quantity},
		{"fee", c.fee, &in.Fee},
	} {
		if field.value == "" {
			continue
		}
		d, err := decimal.NewFromString(field.value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -%s: %v\n", field.name, err)
			return subcommands.ExitUsageError
		}
		*field.dst = &d
	}

	if c.timestamp != "" {
		t, err := time.Parse(time.RFC3339, c.timestamp)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -t: %v\n", err)
			return subcommands.ExitUsageError
		}
		in.Timestamp = t
	}

	svc, closeFn, err := openService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	trade, err := svc.RecordTrade(ctx, in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording trade: %s\n", describe(err))
		return subcommands.ExitFailure
	}

	fmt.Printf("%s %s %s %s @ %s (fee %s)\n",
		trade.RefID, trade.Side, trade.Quantity.String(), trade.Symbol,
		trade.Price.StringFixed(domain.Precision), trade.Fee.StringFixed(domain.Precision))
	return subcommands.ExitSuccess
}
