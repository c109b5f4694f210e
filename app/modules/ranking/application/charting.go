package rankingservice

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	rankingdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/ranking/domain"
)

const (
	// MaxChartBars caps how many standings are drawn.
	MaxChartBars = 15

	chartHeight   = 480
	chartMinWidth = 640
	barWidth      = 40
	barSpacing    = 20
)

// ChartPalette holds the colors used for rendered charts.
type ChartPalette struct {
	Background drawing.Color
	Bar        drawing.Color
	TextColor  drawing.Color
}

// DefaultPalette is a dark theme readable in chat clients.
var DefaultPalette = ChartPalette{
	Background: drawing.ColorFromHex("1e1f22"),
	Bar:        drawing.ColorFromHex("4caf50"),
	TextColor:  drawing.ColorFromHex("f2f3f5"),
}

// RenderStandingsChart produces a PNG bar chart of ranked points.
func RenderStandingsChart(title string, standings []rankingdomain.Standing, palette ChartPalette) ([]byte, error) {
	if len(standings) > MaxChartBars {
		standings = standings[:MaxChartBars]
	}

	maxPoints := 0.0
	for _, s := range standings {
		if s.Points > maxPoints {
			maxPoints = s.Points
		}
	}
	if maxPoints <= 0 {
		return renderNoDataPlaceholder(title, palette)
	}

	bars := make([]chart.Value, len(standings))
	for i, s := range standings {
		bars[i] = chart.Value{
			Label: s.Label(),
			Value: s.Points,
			Style: chart.Style{
				FillColor:   palette.Bar,
				StrokeColor: palette.Bar,
			},
		}
	}

	width := len(bars)*(barWidth+barSpacing) + 160
	if width < chartMinWidth {
		width = chartMinWidth
	}

	graph := chart.BarChart{
		Title:      title,
		TitleStyle: chart.Style{FontColor: palette.TextColor},
		Width:      width,
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{
			FillColor: palette.Background,
			Padding:   chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		Canvas: chart.Style{FillColor: palette.Background},
		XAxis:  chart.Style{FontColor: palette.TextColor},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: palette.TextColor},
			Range: &chart.ContinuousRange{Min: 0, Max: maxPoints * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return rankingdomain.FormatPoints(f)
				}
				return fmt.Sprint(v)
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render standings chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// renderNoDataPlaceholder draws an empty axis so callers always get an image.
func renderNoDataPlaceholder(title string, palette ChartPalette) ([]byte, error) {
	graph := chart.BarChart{
		Title:      fmt.Sprintf("%s: no matches recorded", title),
		TitleStyle: chart.Style{FontColor: palette.TextColor},
		Width:      chartMinWidth,
		Height:     chartHeight / 2,
		BarWidth:   barWidth,
		Background: chart.Style{
			FillColor: palette.Background,
			Padding:   chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		Canvas: chart.Style{FillColor: palette.Background},
		XAxis:  chart.Style{FontColor: palette.TextColor},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: palette.TextColor},
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Bars: []chart.Value{{Label: "-", Value: 0}},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render placeholder chart: %w", err)
	}
	return buffer.Bytes(), nil
}
