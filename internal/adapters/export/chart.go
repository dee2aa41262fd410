package export

import (
	"bytes"
	"io"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/okian/roundreport/internal/domain/report"
	"github.com/okian/roundreport/internal/domain/types"
	"github.com/okian/roundreport/pkg/metrics"
)

// ContentTypePNG is the media type of charts.
const ContentTypePNG = "image/png"

// NewUsersChart draws new users per round as a bar chart.
func NewUsersChart(w io.Writer, r report.NewUsersReport) error {
	graph := chart.BarChart{
		Title:    spanTitle("Count of new users", r.Span),
		Width:    800,
		Height:   400,
		BarWidth: barWidth(len(r.Rows)),
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount(r.Rows)) + 1},
		},
		Bars: make([]chart.Value, 0, len(r.Rows)),
	}
	for _, row := range r.Rows {
		graph.Bars = append(graph.Bars, chart.Value{Label: strconv.Itoa(row.Round), Value: float64(row.Count)})
	}
	// BarChart refuses to render without bars.
	if len(graph.Bars) == 0 {
		graph.Bars = append(graph.Bars, chart.Value{Label: "", Value: 0})
	}

	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return err
	}
	if _, err := buf.WriteTo(w); err != nil {
		return err
	}
	metrics.RecordExport("png")
	return nil
}

func barWidth(n int) int {
	switch {
	case n <= 10:
		return 40
	case n <= 40:
		return 14
	default:
		return 6
	}
}

func maxCount(rows []types.NewUsersRow) int {
	m := 0
	for _, row := range rows {
		m = max(m, row.Count)
	}
	return m
}
