// Package report renders run statistics and balances as markdown.
package report

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"

	"github.com/coinledger/bnc/internal/consolidate"
	"github.com/coinledger/bnc/internal/ledger"
	"github.com/coinledger/bnc/internal/money"
)

// quantityPlaces is the precision of asset quantities in the balances table.
const quantityPlaces = 8

// tableOptions keeps long labels on one row and headers as written.
var tableOptions = md.TableOptions{AutoWrapText: false, AutoFormatHeaders: false}

// Process is the input of the process report.
type Process struct {
	Stats  *ledger.Stats
	Others *ledger.Balances
	// Balances is included only when set. Each ValueUSD must already hold
	// the value today.
	Balances *ledger.Balances
}

// ProcessMarkdown renders the balances (when present), the operation table
// and the Distribution Others breakdown.
func ProcessMarkdown(p Process) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Distribution Report")

	if p.Balances != nil {
		doc.H2("Balances")
		doc.CustomTable(balancesTable(p.Balances), tableOptions)
		doc.PlainText(fmt.Sprintf("Total account value: %s", money.USD(p.Balances.TotalValueUSD())))
	}

	doc.H2("Operations")
	doc.CustomTable(operationsTable(p.Stats), tableOptions)

	doc.H2("Distribution Others")
	if p.Others == nil || p.Others.Len() == 0 {
		doc.PlainText("No Others rewards.")
	} else {
		doc.CustomTable(othersTable(p.Others), tableOptions)
	}

	return doc.String()
}

func operationsTable(s *ledger.Stats) md.TableSet {
	table := md.TableSet{
		Header: []string{"Operation", "Count", "USD Value", "Fee USD Value"},
		Rows:   [][]string{},
	}
	row := func(label string, t ledger.Tally, withFee bool) {
		fee := ""
		if withFee {
			fee = money.USD(t.Fee)
		}
		table.Rows = append(table.Rows, []string{label, money.Count(t.Count), money.USD(t.Value), fee})
	}

	row("Distribution Referral Commission", s.Distribution.Referral, false)
	row("Distribution Staking Rewards", s.Distribution.Staking, false)
	row("Distribution Others", s.Distribution.Others, false)
	row("Quick Buy", s.Quick.Buy, true)
	row("Quick Sell", s.Quick.Sell, true)
	row("Spot Buy", s.Spot.Buy, true)
	row("Spot Sell", s.Spot.Sell, true)
	row("Withdrawal Crypto", s.Withdrawal.Crypto, true)
	row("Deposit Crypto", s.Deposit.Crypto, false)
	row("Deposit USD", s.Deposit.USD, true)

	table.Rows = append(table.Rows, []string{
		md.Bold("Totals"),
		money.Count(s.Total),
		"",
		money.USD(s.FeesUSD()),
	})
	return table
}

func othersTable(b *ledger.Balances) md.TableSet {
	table := md.TableSet{
		Header: []string{"Asset", "Quantity", "Txs Count", "USD Value"},
		Rows:   [][]string{},
	}
	for _, e := range b.Entries() {
		table.Rows = append(table.Rows, []string{
			e.Asset,
			e.Quantity.String(),
			money.Count(e.TxCount),
			money.USD(e.ValueUSD),
		})
	}
	return table
}

func balancesTable(b *ledger.Balances) md.TableSet {
	table := md.TableSet{
		Header: []string{"Asset", "Quantity", "Txs Count", "USD Value Today"},
		Rows:   [][]string{},
	}
	for _, e := range b.Entries() {
		table.Rows = append(table.Rows, []string{
			e.Asset,
			money.Separated(e.Quantity, quantityPlaces),
			money.Count(e.TxCount),
			money.USD(e.ValueUSD),
		})
	}
	return table
}

// ConsolidateMarkdown renders per-asset record counts before and after
// consolidation.
func ConsolidateMarkdown(sums []consolidate.Summary) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Consolidation")

	table := md.TableSet{
		Header: []string{"Asset", "Records", "Consolidated"},
		Rows:   [][]string{},
	}
	var pre, post int
	for _, s := range sums {
		pre += s.Pre
		post += s.Post
		table.Rows = append(table.Rows, []string{s.Asset, countInt(s.Pre), countInt(s.Post)})
	}
	doc.CustomTable(table, tableOptions)
	doc.PlainText(fmt.Sprintf("Consolidated from %s to %s records.", countInt(pre), countInt(post)))

	return doc.String()
}

func countInt(n int) string {
	return money.Separated(decimal.NewFromInt(int64(n)), 0)
}
