// Command gapfade-journal manages the hand-entered trade ledger: add and
// delete trades, list them, and print weekly/monthly statistics.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"gapfade/internal/config"
	"gapfade/internal/journal"
	"gapfade/internal/util"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gapfade-journal <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  add        Add a trade (and optional locate fee)\n")
		fmt.Fprintf(os.Stderr, "  list       List all trades\n")
		fmt.Fprintf(os.Stderr, "  delete     Delete a trade by index\n")
		fmt.Fprintf(os.Stderr, "  summary    Print the ledger rollup\n")
		fmt.Fprintf(os.Stderr, "  weekly     Print weekly stats (-date YYYY-MM-DD)\n")
		fmt.Fprintf(os.Stderr, "  monthly    Print monthly stats (-date YYYY-MM-DD)\n")
		fmt.Fprintf(os.Stderr, "  balance    Set the starting balance\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	ledger, err := openLedger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening journal: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		err = cmdAdd(ledger, os.Args[2:])
	case "list":
		err = cmdList(ledger)
	case "delete":
		err = cmdDelete(ledger, os.Args[2:])
	case "summary":
		err = cmdSummary(ledger)
	case "weekly":
		err = cmdPeriod(ledger, os.Args[2:], ledger.WeeklyStats)
	case "monthly":
		err = cmdPeriod(ledger, os.Args[2:], ledger.MonthlyStats)
	case "balance":
		err = cmdBalance(ledger, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func openLedger() (*journal.Ledger, error) {
	cfgPath := "config/gapfade.yaml"
	if p := os.Getenv("GAPFADE_CONFIG"); p != "" {
		cfgPath = p
	}

	journalPath := "trading_data.json"
	if cfg, err := config.Load(cfgPath); err == nil {
		journalPath = cfg.Storage.JournalPath
	} else if p := os.Getenv("JOURNAL_PATH"); p != "" {
		// No config file; the env override still applies.
		journalPath = p
	}
	return journal.Open(journalPath)
}

func cmdAdd(l *journal.Ledger, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	date := fs.String("date", time.Now().In(util.ETLocation()).Format("2006-01-02"), "trade date YYYY-MM-DD")
	symbol := fs.String("symbol", "", "ticker symbol (required)")
	side := fs.String("type", "Short", "Long or Short")
	realized := fs.Float64("realized", 0, "realized P&L")
	locate := fs.Float64("locate", 0, "locate fee, recorded when > 0")
	fs.Parse(args)

	if err := l.AddTrade(journal.Trade{
		Date:     *date,
		Symbol:   *symbol,
		Type:     *side,
		Realized: *realized,
	}, *locate); err != nil {
		return err
	}
	fmt.Println("trade added")
	return nil
}

func cmdList(l *journal.Ledger) error {
	trades := l.Trades()
	if len(trades) == 0 {
		fmt.Println("no trades")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Date", "Symbol", "Type", "Realized")
	for i, t := range trades {
		table.Append(
			fmt.Sprintf("%d", i),
			t.Date,
			t.Symbol,
			t.Type,
			fmt.Sprintf("%.2f", t.Realized),
		)
	}
	table.Render()
	return nil
}

func cmdDelete(l *journal.Ledger, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	index := fs.Int("index", -1, "trade index from 'list' (required)")
	fs.Parse(args)

	if err := l.DeleteTrade(*index); err != nil {
		return err
	}
	fmt.Println("trade deleted")
	return nil
}

func cmdSummary(l *journal.Ledger) error {
	s := l.Summarize()
	fmt.Printf("starting balance  %.2f\n", s.StartingBalance)
	fmt.Printf("total realized    %.2f\n", s.TotalRealized)
	fmt.Printf("locate fees       %.2f\n", s.TotalLocateCost)
	fmt.Printf("net P&L           %.2f\n", s.NetPnL)
	fmt.Printf("current balance   %.2f\n", s.CurrentBalance)
	fmt.Printf("trades            %d (win rate %.1f%%)\n", s.TotalTrades, s.WinRatePct)

	if d := l.LatestDailyPnL(); d != nil {
		fmt.Printf("latest day        %s: %.2f (%.2f%%)\n", d.Date, d.PnL, d.ReturnPct)
	}
	return nil
}

func cmdPeriod(l *journal.Ledger, args []string, compute func(string) *journal.PeriodStats) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	date := fs.String("date", time.Now().In(util.ETLocation()).Format("2006-01-02"), "any date inside the period")
	fs.Parse(args)

	stats := compute(*date)
	if stats == nil {
		fmt.Printf("no trades around %s\n", *date)
		return nil
	}

	fmt.Printf("period starting   %s\n", stats.PeriodStart)
	fmt.Printf("trades            %d\n", stats.TotalTrades)
	fmt.Printf("total P&L         %.2f (%.2f%% of balance)\n", stats.TotalPnL, stats.PortfolioPct)
	fmt.Printf("win rate          %.1f%%\n", stats.WinRatePct)
	fmt.Printf("avg win / loss    %.2f / %.2f\n", stats.AvgWin, stats.AvgLoss)
	fmt.Printf("largest win/loss  %.2f / %.2f\n", stats.LargestWin, stats.LargestLoss)
	fmt.Printf("best weekday      %s\n", stats.BestDay)

	if len(stats.SymbolPnL) > 0 {
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Symbol", "P&L")
		for sym, pnl := range stats.SymbolPnL {
			table.Append(sym, fmt.Sprintf("%.2f", pnl))
		}
		table.Render()
	}
	return nil
}

func cmdBalance(l *journal.Ledger, args []string) error {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	amount := fs.Float64("set", 0, "new starting balance (required)")
	fs.Parse(args)

	if err := l.SetStartingBalance(*amount); err != nil {
		return err
	}
	fmt.Printf("starting balance set to %.2f\n", *amount)
	return nil
}
