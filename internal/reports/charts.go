package reports

import (
	"bytes"
	"fmt"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/yukikurage/taskflow-api/internal/analytics"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	chartWidth  = 640
	chartHeight = 400
)

var (
	chartFontOnce sync.Once
	chartFont     *truetype.Font
	chartFontErr  error
)

func chartFace(size float64) (font.Face, error) {
	chartFontOnce.Do(func() {
		chartFont, chartFontErr = truetype.Parse(goregular.TTF)
	})
	if chartFontErr != nil {
		return nil, fmt.Errorf("failed to parse chart font: %w", chartFontErr)
	}
	return truetype.NewFace(chartFont, &truetype.Options{Size: size}), nil
}

// RenderStatusChart draws the status distribution as a PNG pie chart with a
// legend.
func RenderStatusChart(dist []analytics.NameValue) ([]byte, error) {
	return renderPie("Task Status Distribution", dist, statusColors)
}

// RenderPriorityChart draws the priority distribution as a PNG bar chart.
func RenderPriorityChart(dist []analytics.NameValue) ([]byte, error) {
	return renderBars("Task Priority Distribution", dist, priorityColors)
}

func newChartContext(title string) (*gg.Context, error) {
	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetHexColor("#FFFFFF")
	dc.Clear()

	face, err := chartFace(20)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)
	dc.SetHexColor(textColor)
	dc.DrawStringAnchored(title, chartWidth/2, 28, 0.5, 0.5)
	return dc, nil
}

func encodeChart(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

func drawEmpty(dc *gg.Context) error {
	face, err := chartFace(16)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	dc.SetHexColor(mutedColor)
	dc.DrawStringAnchored("No data available", chartWidth/2, chartHeight/2, 0.5, 0.5)
	return nil
}

func renderPie(title string, dist []analytics.NameValue, palette map[string]string) ([]byte, error) {
	dc, err := newChartContext(title)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, nv := range dist {
		total += nv.Value
	}
	if total == 0 {
		if err := drawEmpty(dc); err != nil {
			return nil, err
		}
		return encodeChart(dc)
	}

	cx, cy, radius := 220.0, 215.0, 140.0
	angle := -math.Pi / 2
	for i, nv := range dist {
		if nv.Value == 0 {
			continue
		}
		sweep := 2 * math.Pi * float64(nv.Value) / float64(total)
		dc.MoveTo(cx, cy)
		dc.DrawArc(cx, cy, radius, angle, angle+sweep)
		dc.ClosePath()
		dc.SetHexColor(colorFor(palette, nv.Name, i))
		dc.FillPreserve()
		dc.SetHexColor("#FFFFFF")
		dc.SetLineWidth(2)
		dc.Stroke()
		angle += sweep
	}

	face, err := chartFace(14)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)
	for i, nv := range dist {
		y := 110 + float64(i)*32
		dc.SetHexColor(colorFor(palette, nv.Name, i))
		dc.DrawRectangle(420, y-9, 18, 18)
		dc.Fill()
		dc.SetHexColor(textColor)
		label := fmt.Sprintf("%s: %d (%.0f%%)", nv.Name, nv.Value, analytics.Share(nv.Value, total))
		dc.DrawStringAnchored(label, 446, y, 0, 0.35)
	}

	return encodeChart(dc)
}

func renderBars(title string, dist []analytics.NameValue, palette map[string]string) ([]byte, error) {
	dc, err := newChartContext(title)
	if err != nil {
		return nil, err
	}
	if len(dist) == 0 {
		if err := drawEmpty(dc); err != nil {
			return nil, err
		}
		return encodeChart(dc)
	}

	maxValue := 0
	for _, nv := range dist {
		if nv.Value > maxValue {
			maxValue = nv.Value
		}
	}
	if maxValue == 0 {
		maxValue = 1
	}

	left, right, top, bottom := 60.0, float64(chartWidth)-40, 70.0, float64(chartHeight)-60
	dc.SetHexColor(lineColor)
	dc.SetLineWidth(1)
	dc.DrawLine(left, bottom, right, bottom)
	dc.Stroke()

	face, err := chartFace(14)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)

	slot := (right - left) / float64(len(dist))
	barWidth := slot * 0.6
	for i, nv := range dist {
		h := (bottom - top) * float64(nv.Value) / float64(maxValue)
		x := left + slot*float64(i) + (slot-barWidth)/2
		dc.SetHexColor(colorFor(palette, nv.Name, i))
		dc.DrawRectangle(x, bottom-h, barWidth, h)
		dc.Fill()

		dc.SetHexColor(textColor)
		dc.DrawStringAnchored(fmt.Sprintf("%d", nv.Value), x+barWidth/2, bottom-h-12, 0.5, 0.5)
		dc.DrawStringAnchored(nv.Name, x+barWidth/2, bottom+20, 0.5, 0.5)
	}

	return encodeChart(dc)
}
