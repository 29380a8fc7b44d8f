package bot

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// PrintAccountSummary renders the account and open positions to stdout at
// session start.
func (b *Bot) PrintAccountSummary(ctx context.Context) error {
	account, positions, err := b.fetchAccountState(ctx)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("ACCOUNT")
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"Broker", b.broker.Name()},
		{"Equity", fmt.Sprintf("$%.2f", account.Equity)},
		{"Cash", fmt.Sprintf("$%.2f", account.Cash)},
		{"Buying Power", fmt.Sprintf("$%.2f", account.BuyingPower)},
		{"Margin Available", fmt.Sprintf("$%.2f", account.MarginAvailable)},
		{"P/L Today", fmt.Sprintf("$%.2f", account.RealizedPnLToday)},
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 20, Align: text.AlignRight},
	})
	t.Render()

	if len(positions) == 0 {
		fmt.Println("No open positions.")
		return nil
	}

	p := table.NewWriter()
	p.SetOutputMirror(os.Stdout)
	p.SetTitle("OPEN POSITIONS")
	p.SetStyle(table.StyleRounded)
	p.AppendHeader(table.Row{"Symbol", "Qty", "Market Value", "Unrealized P/L", "P/L %"})
	for _, pos := range positions {
		p.AppendRow(table.Row{
			pos.Symbol,
			pos.Quantity,
			fmt.Sprintf("$%.2f", pos.MarketValue),
			fmt.Sprintf("$%.2f", pos.UnrealizedPnL),
			fmt.Sprintf("%.2f%%", pos.UnrealizedPnLPct),
		})
	}
	p.Render()
	return nil
}
