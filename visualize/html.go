package visualize

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/golang/geo/r3"

	"go.viam.com/fiducialpose/campose"
)

// points per drawn line segment
const segmentSamples = 25

// Scene3DHTML renders an interactive 3D view of the pose as a standalone HTML page.
func Scene3DHTML(pose *campose.CameraPose, title string, w io.Writer) error {
	scene, err := NewScene(pose)
	if err != nil {
		return err
	}
	yaw, pitch, roll := pose.Degrees()

	scatter := charts.NewScatter3D()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title: title,
			Subtitle: fmt.Sprintf("position (%.3f, %.3f, %.3f) m  yaw %.1f°  pitch %.1f°  roll %.1f°",
				pose.Position.X, pose.Position.Y, pose.Position.Z, yaw, pitch, roll),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X (m)", Min: -horizontalLimit, Max: horizontalLimit}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Y (m)", Min: -horizontalLimit, Max: horizontalLimit}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Z (m)", Min: 0, Max: verticalLimit}),
	)

	var outline []r3.Vector
	for i := range scene.Pattern {
		outline = append(outline, Segment{From: scene.Pattern[i], To: scene.Pattern[(i+1)%len(scene.Pattern)]}.sample(segmentSamples)...)
	}
	scatter.AddSeries("Pattern", chartData(outline))
	scatter.AddSeries("Pattern Top", chartData(scene.PatternTop.sample(segmentSamples)))
	scatter.AddSeries("Camera", chartData([]r3.Vector{scene.Camera}))
	scatter.AddSeries("Camera Direction", chartData(scene.ViewRay.sample(4*segmentSamples)))
	scatter.AddSeries("Camera Up", chartData(scene.CameraUp.sample(segmentSamples)))

	page := components.NewPage()
	page.AddCharts(scatter)
	return page.Render(w)
}

func chartData(points []r3.Vector) []opts.Chart3DData {
	out := make([]opts.Chart3DData, 0, len(points))
	for _, p := range points {
		out = append(out, opts.Chart3DData{Value: []interface{}{p.X, p.Y, p.Z}})
	}
	return out
}
