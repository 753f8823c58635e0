package dashboard

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/joseph-ayodele/assignment-verifier/constants"
)

const (
	ChartWidth  = 960
	ChartHeight = 360
)

var (
	chartBackground = color.RGBA{0xff, 0xff, 0xff, 0xff}
	chartAxis       = color.RGBA{0x55, 0x55, 0x55, 0xff}
	chartDateBar    = color.RGBA{0x1f, 0x77, 0xb4, 0xff}
	resultColors    = map[constants.EvaluationResult]color.Color{
		constants.ResultPass:       color.RGBA{0x2c, 0xa0, 0x2c, 0xff},
		constants.ResultCanImprove: color.RGBA{0xff, 0x7f, 0x0e, 0xff},
		constants.ResultRework:     color.RGBA{0xd6, 0x27, 0x28, 0xff},
	}
)

type bar struct {
	label string
	value int
	color color.Color
}

// RenderChart draws two bar panels side by side: submissions per date and
// submissions per evaluation result.
func RenderChart(a Analytics, width, height int) ([]byte, error) {
	dc := gg.NewContext(width, height)
	dc.SetColor(chartBackground)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	half := float64(width) / 2

	dates := make([]bar, 0, len(a.ByDate))
	for _, d := range a.ByDate {
		label := d.Date
		if len(label) == len("2006-01-02") {
			label = label[5:] // MM-DD
		}
		dates = append(dates, bar{label: label, value: d.Count, color: chartDateBar})
	}
	results := make([]bar, 0, len(a.ByResult))
	for _, r := range a.ByResult {
		results = append(results, bar{label: string(r.Result), value: r.Count, color: resultColors[r.Result]})
	}

	drawPanel(dc, "Submissions by date", dates, 0, 0, half, float64(height))
	drawPanel(dc, "Evaluation results", results, half, 0, half, float64(height))

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

func drawPanel(dc *gg.Context, title string, bars []bar, x, y, w, h float64) {
	const pad = 40.0
	left, right := x+pad, x+w-pad/2
	top, bottom := y+pad, y+h-pad

	dc.SetColor(chartAxis)
	dc.DrawStringAnchored(title, x+w/2, y+pad/2, 0.5, 0.5)
	dc.SetLineWidth(1)
	dc.DrawLine(left, top, left, bottom)
	dc.DrawLine(left, bottom, right, bottom)
	dc.Stroke()

	if len(bars) == 0 {
		dc.DrawStringAnchored("no submissions", x+w/2, y+h/2, 0.5, 0.5)
		return
	}

	peak := 1
	for _, b := range bars {
		if b.value > peak {
			peak = b.value
		}
	}
	dc.DrawStringAnchored(fmt.Sprintf("%d", peak), left-6, top, 1, 0.5)
	dc.DrawStringAnchored("0", left-6, bottom, 1, 0.5)

	slot := (right - left) / float64(len(bars))
	barW := slot * 0.6
	for i, b := range bars {
		bh := (bottom - top) * float64(b.value) / float64(peak)
		bx := left + slot*float64(i) + (slot-barW)/2
		dc.SetColor(b.color)
		dc.DrawRectangle(bx, bottom-bh, barW, bh)
		dc.Fill()

		dc.SetColor(chartAxis)
		if b.value > 0 {
			dc.DrawStringAnchored(fmt.Sprintf("%d", b.value), bx+barW/2, bottom-bh-8, 0.5, 0.5)
		}
		dc.DrawStringAnchored(b.label, bx+barW/2, bottom+14, 0.5, 0.5)
	}
}
