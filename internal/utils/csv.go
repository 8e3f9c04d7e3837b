package utils

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pawankumargali/pnl-tracker/internal/domain"
)

// WriteTradesToCSV writes the ledger to filename, one row per trade.
func WriteTradesToCSV(trades []domain.Trade, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteTrades(file, trades); err != nil {
		return err
	}
	return file.Close()
}

// WriteTrades writes a header and one CSV row per trade to w.
func WriteTrades(w io.Writer, trades []domain.Trade) error {
	writer := csv.NewWriter(w)

	// Write header
	writer.Write([]string{"ref_id", "id", "timestamp", "symbol", "side", "price", "quantity", "fee", "currency"})

	for _, t := range trades {
		writer.Write([]string{
			t.RefID,
			strconv.FormatInt(t.ID, 10),
			t.Timestamp.UTC().Format(time.RFC3339),
			t.Symbol,
			string(t.Side),
			t.Price.StringFixed(domain.Precision),
			t.Quantity.StringFixed(domain.Precision),
			t.Fee.StringFixed(domain.Precision),
			t.Currency,
		})
	}
	writer.Flush()
	return writer.Error()
}
