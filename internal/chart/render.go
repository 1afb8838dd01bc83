package chart

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Spec is the structured chart description the decision step produces
// instead of generated plotting code.
type Spec struct {
	Type   string    `json:"type"`
	Title  string    `json:"title"`
	XLabel string    `json:"x_label"`
	YLabel string    `json:"y_label"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

func (s Spec) validate() error {
	if len(s.Values) == 0 {
		return fmt.Errorf("chart spec has no values")
	}
	if len(s.Labels) > 0 && len(s.Labels) != len(s.Values) {
		return fmt.Errorf("chart spec has %d labels for %d values", len(s.Labels), len(s.Values))
	}
	switch s.Type {
	case "bar", "line":
		return nil
	case "pie":
		total := 0.0
		for _, v := range s.Values {
			if v < 0 {
				return fmt.Errorf("pie chart values must not be negative")
			}
			total += v
		}
		if total == 0 {
			return fmt.Errorf("pie chart values sum to zero")
		}
		return nil
	default:
		return fmt.Errorf("unsupported chart type: %q", s.Type)
	}
}

// Render draws the spec as a PNG at path, overwriting any previous file.
func Render(spec Spec, path string) error {
	if err := spec.validate(); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = spec.YLabel

	switch spec.Type {
	case "bar":
		bars, err := plotter.NewBarChart(plotter.Values(spec.Values), vg.Points(24))
		if err != nil {
			return fmt.Errorf("build bar chart failed: %w", err)
		}
		p.Add(bars)
		if len(spec.Labels) > 0 {
			p.NominalX(spec.Labels...)
		}
	case "line":
		pts := make(plotter.XYs, len(spec.Values))
		for i, v := range spec.Values {
			pts[i].X = float64(i)
			pts[i].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("build line chart failed: %w", err)
		}
		p.Add(line)
		if len(spec.Labels) > 0 {
			p.NominalX(spec.Labels...)
		}
	case "pie":
		if err := addPieWedges(p, spec); err != nil {
			return err
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create chart directory failed: %w", err)
		}
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart failed: %w", err)
	}
	return nil
}

// addPieWedges draws one filled wedge per value on a unit circle, starting at
// twelve o'clock and sweeping clockwise. Labels go into the legend.
func addPieWedges(p *plot.Plot, spec Spec) error {
	p.HideAxes()

	total := 0.0
	for _, v := range spec.Values {
		total += v
	}

	angle := math.Pi / 2
	for i, v := range spec.Values {
		sweep := 2 * math.Pi * v / total
		wedge, err := plotter.NewPolygon(wedgeXYs(angle, sweep))
		if err != nil {
			return fmt.Errorf("build pie wedge failed: %w", err)
		}
		wedge.Color = plotutil.Color(i)
		wedge.LineStyle.Color = color.White
		wedge.LineStyle.Width = vg.Points(1)
		p.Add(wedge)
		if i < len(spec.Labels) {
			p.Legend.Add(spec.Labels[i], wedge)
		}
		angle -= sweep
	}
	return nil
}

// wedgeXYs traces a wedge outline: the circle center, then the arc from start
// sweeping clockwise by sweep radians.
func wedgeXYs(start, sweep float64) plotter.XYs {
	segments := int(sweep/0.05) + 2
	pts := make(plotter.XYs, 0, segments+2)
	pts = append(pts, plotter.XY{})
	for i := 0; i <= segments; i++ {
		theta := start - sweep*float64(i)/float64(segments)
		pts = append(pts, plotter.XY{X: math.Cos(theta), Y: math.Sin(theta)})
	}
	return pts
}
