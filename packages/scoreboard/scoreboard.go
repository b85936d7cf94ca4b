package scoreboard

import (
	"fmt"
	"io"

	"github.com/fogleman/gg"
)

type Row struct {
	Label  string
	Accept int
	Deny   int
}

type Layout struct {
	Width       float64
	RowH        float64
	GapY        float64
	LabelW      float64
	PaddingTop  float64
	PaddingSide float64
}

var DefaultLayout = Layout{
	Width:       640,
	RowH:        28,
	GapY:        10,
	LabelW:      160,
	PaddingTop:  48,
	PaddingSide: 20,
}

func maxVotes(rows []Row) int {
	var max int

	for _, row := range rows {
		if total := row.Accept + row.Deny; total > max {
			max = total
		}
	}

	return max
}

func drawBar(dc *gg.Context, index int, row Row, layout Layout, scale float64) {
	y := layout.PaddingTop + float64(index)*(layout.RowH+layout.GapY)
	x := layout.PaddingSide + layout.LabelW
	radius := layout.RowH / 6

	dc.SetRGB(1, 1, 1)
	dc.DrawStringWrapped(row.Label, layout.PaddingSide, y+layout.RowH/2, 0, 0.5, layout.LabelW-10, 1.0, gg.AlignLeft)

	// Track
	dc.DrawRoundedRectangle(x, y, layout.Width-x-layout.PaddingSide-60, layout.RowH, radius)
	dc.SetHexColor("#2f3136")
	dc.Fill()

	acceptW := float64(row.Accept) * scale
	denyW := float64(row.Deny) * scale

	if acceptW > 0 {
		dc.DrawRoundedRectangle(x, y, acceptW, layout.RowH, radius)
		dc.SetHexColor("#43b581")
		dc.Fill()
	}

	if denyW > 0 {
		dc.DrawRoundedRectangle(x+acceptW, y, denyW, layout.RowH, radius)
		dc.SetHexColor("#f04747")
		dc.Fill()
	}

	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(fmt.Sprintf("%d / %d", row.Accept, row.Deny), layout.Width-layout.PaddingSide, y+layout.RowH/2, 1, 0.5)
}

// Draw renders one accept/deny bar per row and writes the chart as PNG.
func Draw(w io.Writer, title string, rows []Row) error {
	return DrawWithLayout(w, title, rows, DefaultLayout)
}

func DrawWithLayout(w io.Writer, title string, rows []Row, layout Layout) error {
	count := float64(len(rows))
	if count == 0 {
		count = 1
	}

	height := layout.PaddingTop + count*layout.RowH + (count-1)*layout.GapY + layout.PaddingSide

	dc := gg.NewContext(int(layout.Width), int(height))

	dc.SetHexColor("#36393f")
	dc.Clear()

	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(title, layout.Width/2, layout.PaddingTop/2, 0.5, 0.5)

	if len(rows) == 0 {
		dc.DrawStringAnchored("No submissions", layout.Width/2, layout.PaddingTop+layout.RowH/2, 0.5, 0.5)
		return dc.EncodePNG(w)
	}

	trackW := layout.Width - layout.PaddingSide*2 - layout.LabelW - 60
	scale := 0.0
	if max := maxVotes(rows); max > 0 {
		scale = trackW / float64(max)
	}

	for index, row := range rows {
		drawBar(dc, index, row, layout, scale)
	}

	return dc.EncodePNG(w)
}
