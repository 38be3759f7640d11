package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"impact-maker-go/internal/journal"
)

// 从成交流水库汇总成交：按交易对与方向统计笔数、数量、名义与费用。
func main() {
	dbPath := flag.String("journal", "data/journal.db", "成交流水库路径")
	symbol := flag.String("symbol", "", "仅统计指定交易对 (默认全量)")
	flag.Parse()

	if _, err := os.Stat(*dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "无法读取流水库: %v\n", err)
		os.Exit(1)
	}
	j, err := journal.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "打开流水库失败: %v\n", err)
		os.Exit(1)
	}
	defer j.Close()

	rows, err := j.FillSummary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "汇总成交失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("统计文件: %s\n", *dbPath)
	if *symbol != "" {
		fmt.Printf("交易对: %s\n", *symbol)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "symbol\tside\tcount\tqty\tnotional\tfees")
	var buyNotional, sellNotional, fees float64
	for _, r := range rows {
		if *symbol != "" && r.Symbol != *symbol {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.4f\t%.4f\t%.4f\n", r.Symbol, r.Side, r.Count, r.Qty, r.Notional, r.Fees)
		if r.Side == "BUY" {
			buyNotional += r.Notional
		} else {
			sellNotional += r.Notional
		}
		fees += r.Fees
	}
	_ = tw.Flush()

	fmt.Printf("买单名义: %.4f\n", buyNotional)
	fmt.Printf("卖单名义: %.4f\n", sellNotional)
	fmt.Printf("净成交差额: %.4f\n", sellNotional-buyNotional)
	fmt.Printf("费用合计: %.4f\n", fees)

	changes, err := j.ParamChanges()
	if err == nil && len(changes) > 0 {
		fmt.Printf("参数修改: %d 次\n", len(changes))
	}
}
