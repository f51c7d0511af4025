package split

import (
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Counts describes one written subset
type Counts struct {
	Images      int
	Annotations int
	ImageBytes  int64
}

// Summary reports what Prepare wrote
type Summary struct {
	OutputDir string
	Train     Counts
	Val       Counts
}

// Render formats the summary as a table
func (s *Summary) Render() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.SetTitle("Dataset prepared in " + s.OutputDir)
	tw.AppendHeader(table.Row{"Split", "Images", "Annotations", "Image bytes"})
	for _, row := range []struct {
		name string
		c    Counts
	}{
		{"train", s.Train},
		{"val", s.Val},
	} {
		tw.AppendRow(table.Row{
			row.name,
			strconv.Itoa(row.c.Images),
			strconv.Itoa(row.c.Annotations),
			humanize.Bytes(uint64(row.c.ImageBytes)),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
