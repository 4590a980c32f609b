package metrics

import (
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/creditlab/loanpipe/pkg/errors"
)

var rocPalette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
}

// SaveROCPlot はモデル名→ROC曲線のマップをPNG/SVG等の画像に描画する。
// 形式は拡張子から決まる。ランダム分類器の対角線を比較用に重ねる。
func SaveROCPlot(path string, curves map[string][]ROCPoint) error {
	if len(curves) == 0 {
		return errors.NewValueError("SaveROCPlot", "no curves to plot")
	}

	p := plot.New()
	p.Title.Text = "ROC curves"
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	diag, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return errors.Wrap(err, "failed to build diagonal reference line")
	}
	diag.LineStyle.Color = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	diag.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diag)

	// Deterministic legend and color order.
	names := make([]string, 0, len(curves))
	for name := range curves {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		pts := make(plotter.XYs, len(curves[name]))
		for j, pt := range curves[name] {
			pts[j].X = pt.FPR
			pts[j].Y = pt.TPR
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "failed to build ROC line for %s", name)
		}
		line.LineStyle.Color = rocPalette[i%len(rocPalette)]
		line.LineStyle.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	p.Legend.Top = false
	p.Legend.Left = false

	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save ROC plot to %s", path)
	}
	return nil
}
