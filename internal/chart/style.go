package chart

import (
	"github.com/joaaoazul/hypermint/internal/indicator"
	"github.com/joaaoazul/hypermint/internal/model"
)

// Series colors.
const (
	ColorSMA        = "#FCD535"
	ColorEMA        = "#33FFE0"
	ColorBands      = "rgba(0, 150, 255, 0.5)"
	ColorRSI        = "#A855F7"
	ColorGuide      = "#ffffff"
	ColorMACDLine   = "#2962FF"
	ColorMACDSignal = "#FF6D00"
	ColorHistUp     = "#26a69a"
	ColorHistDown   = "#ef5350"
)

// RSI guide levels drawn as dashed lines in the RSI pane.
const (
	RSIOverbought = 70
	RSIOversold   = 30
)

// volumeScaleID puts volume bars on their own overlay price scale at the
// bottom of the main pane.
const volumeScaleID = "volume"

func candleStyle(cs model.ColorScheme) model.Style {
	return model.Style{UpColor: cs.Up, DownColor: cs.Down}
}

func lineStyle(color string, width int) model.Style {
	return model.Style{Color: color, LineWidth: width, LineStyle: model.LineSolid}
}

func overlayColor(k indicator.Kind) string {
	if k == indicator.KindEMA {
		return ColorEMA
	}
	return ColorSMA
}

// histogramColors paints each histogram bar by sign.
func histogramColors(s model.Series) model.Series {
	out := make(model.Series, len(s))
	for i, p := range s {
		p.Color = ColorHistUp
		if p.Value < 0 {
			p.Color = ColorHistDown
		}
		out[i] = p
	}
	return out
}

// constant is a flat line at v over times.
func constant(times []int64, v float64) model.Series {
	out := make(model.Series, len(times))
	for i, t := range times {
		out[i] = model.Point{Time: t, Value: v}
	}
	return out
}
