package output

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Summary renders the per-table counts as a human-readable table.
func (t *Tables) Summary() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Table", "Rows"})

	total := 0
	for _, c := range t.Counts() {
		tw.AppendRow(table.Row{c.Table, strconv.Itoa(c.Rows)})
		total += c.Rows
	}
	tw.AppendFooter(table.Row{"total", strconv.Itoa(total)})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight},
	})
	return tw.Render()
}
