package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// BalancesHeader is the header of a balances export.
var BalancesHeader = []string{"asset", "quantity", "value_usd", "tx_count"}

const (
	numBalanceFields = 4
	colAsset         = 0
	colQuantity      = 1
	colValueUSD      = 2
	colTxCount       = 3
)

// MarshalEntry converts an Entry to a balances CSV row.
func MarshalEntry(e *Entry) []string {
	row := make([]string, numBalanceFields)
	row[colAsset] = e.Asset
	row[colQuantity] = e.Quantity.String()
	row[colValueUSD] = e.ValueUSD.StringFixed(2)
	row[colTxCount] = strconv.FormatUint(e.TxCount, 10)
	return row
}

// WriteBalances writes every entry of b in asset order, including the header.
func WriteBalances(w io.Writer, b *Balances) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(BalancesHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range b.Entries() {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
