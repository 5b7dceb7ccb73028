package visualize

import (
	"image/color"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"go.viam.com/fiducialpose/campose"
)

var (
	patternColor = color.RGBA{R: 120, G: 160, B: 220, A: 255}
	cameraColor  = color.RGBA{B: 255, A: 255}
	rayColor     = color.RGBA{R: 220, A: 255}
	arrowColor   = color.Black
)

// view is an orthographic projection of the scene onto two world axes.
type view struct {
	title          string
	xLabel, yLabel string
	xMin, xMax     float64
	yMin, yMax     float64
	project        func(r3.Vector) plotter.XY
}

var views = []view{
	{
		title: "Top", xLabel: "X (meters)", yLabel: "Y (meters)",
		xMin: -horizontalLimit, xMax: horizontalLimit, yMin: -horizontalLimit, yMax: horizontalLimit,
		project: func(v r3.Vector) plotter.XY { return plotter.XY{X: v.X, Y: v.Y} },
	},
	{
		title: "Front", xLabel: "X (meters)", yLabel: "Z (meters)",
		xMin: -horizontalLimit, xMax: horizontalLimit, yMin: 0, yMax: verticalLimit,
		project: func(v r3.Vector) plotter.XY { return plotter.XY{X: v.X, Y: v.Z} },
	},
	{
		title: "Side", xLabel: "Y (meters)", yLabel: "Z (meters)",
		xMin: -horizontalLimit, xMax: horizontalLimit, yMin: 0, yMax: verticalLimit,
		project: func(v r3.Vector) plotter.XY { return plotter.XY{X: v.Y, Y: v.Z} },
	},
}

// PlotPNG draws the pose from the top, the front and the side and saves the result at path.
func PlotPNG(pose *campose.CameraPose, path string) (err error) {
	scene, err := NewScene(pose)
	if err != nil {
		return err
	}
	const tileSize = 4 * vg.Inch

	row := make([]*plot.Plot, 0, len(views))
	for _, v := range views {
		p, err := scene.plot(v)
		if err != nil {
			return errors.Wrapf(err, "drawing %s view", v.title)
		}
		row = append(row, p)
	}

	img := vgimg.New(vg.Length(len(views))*tileSize, tileSize)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1,
		Cols: len(views),
		PadX: vg.Millimeter,
		PadY: vg.Millimeter,
	}
	plots := [][]*plot.Plot{row}
	canvases := plot.Align(plots, tiles, dc)
	for j := range row {
		row[j].Draw(canvases[0][j])
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %q", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		return errors.Wrapf(err, "writing %q", path)
	}
	return nil
}

func (s *Scene) plot(v view) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = v.title
	p.X.Label.Text = v.xLabel
	p.Y.Label.Text = v.yLabel
	p.X.Min, p.X.Max = v.xMin, v.xMax
	p.Y.Min, p.Y.Max = v.yMin, v.yMax
	p.Add(plotter.NewGrid())

	pattern := make(plotter.XYs, len(s.Pattern))
	for i, c := range s.Pattern {
		pattern[i] = v.project(c)
	}
	patternPoly, err := plotter.NewPolygon(pattern)
	if err != nil {
		return nil, err
	}
	patternPoly.Color = patternColor
	patternPoly.LineStyle.Color = patternColor
	p.Add(patternPoly)

	ray, err := segmentLine(s.ViewRay, v, rayColor)
	if err != nil {
		return nil, err
	}
	p.Add(ray)
	p.Legend.Add("Camera Direction", ray)

	for _, seg := range []Segment{s.PatternTop, s.CameraUp} {
		line, err := segmentLine(seg, v, arrowColor)
		if err != nil {
			return nil, err
		}
		head, err := plotter.NewScatter(plotter.XYs{v.project(seg.To)})
		if err != nil {
			return nil, err
		}
		head.GlyphStyle.Shape = draw.PyramidGlyph{}
		head.GlyphStyle.Color = arrowColor
		head.GlyphStyle.Radius = vg.Points(2.5)
		p.Add(line, head)
	}

	camera, err := plotter.NewScatter(plotter.XYs{v.project(s.Camera)})
	if err != nil {
		return nil, err
	}
	camera.GlyphStyle.Shape = draw.CircleGlyph{}
	camera.GlyphStyle.Color = cameraColor
	camera.GlyphStyle.Radius = vg.Points(3)
	p.Add(camera)
	p.Legend.Add("Camera", camera)
	p.Legend.Top = true

	return p, nil
}

func segmentLine(seg Segment, v view, c color.Color) (*plotter.Line, error) {
	line, err := plotter.NewLine(plotter.XYs{v.project(seg.From), v.project(seg.To)})
	if err != nil {
		return nil, err
	}
	line.Color = c
	line.Width = vg.Points(1)
	return line, nil
}
