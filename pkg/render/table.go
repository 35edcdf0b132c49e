package render

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Table renders the category counts as a box-drawn table.
type Table struct{}

// NewTable creates a table renderer.
func NewTable() *Table {
	return &Table{}
}

// Render formats the summary as a table with a total footer.
func (tr *Table) Render(s Summary) string {
	t := table.NewWriter()
	if s.RunID != "" {
		t.SetTitle("Run " + s.RunID)
	}
	t.AppendHeader(table.Row{"Category", "Tests"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Category", WidthMax: 40},
		{Name: "Tests", Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	for _, r := range rows(s.Counts) {
		t.AppendRow(table.Row{r.name, r.count})
	}
	t.AppendFooter(table.Row{"Total", s.Counts.Total()})
	t.SetStyle(table.StyleRounded)
	return t.Render() + "\n"
}
