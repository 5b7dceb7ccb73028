package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/fiducialpose/utils"
	"go.viam.com/fiducialpose/visualize"
)

// Summary aggregates the successful results of a batch.
type Summary struct {
	Total     int     `json:"total"`
	Succeeded int     `json:"succeeded"`
	MeanRMSE  float64 `json:"mean_reprojection_rmse_px"`
	MaxRMSE   float64 `json:"max_reprojection_rmse_px"`
	MeanZ     float64 `json:"mean_height_m"`
	StdDevZ   float64 `json:"stddev_height_m"`
}

// Summarize computes batch statistics over the results that resolved a pose.
func Summarize(results []*Result) Summary {
	ok := lo.Filter(results, func(r *Result, _ int) bool { return r.OK() })
	s := Summary{Total: len(results), Succeeded: len(ok)}
	if len(ok) == 0 {
		return s
	}
	rmse := stats.Float64Data(lo.Map(ok, func(r *Result, _ int) float64 { return r.ReprojectionRMSE }))
	heights := stats.Float64Data(lo.Map(ok, func(r *Result, _ int) float64 { return r.Pose.Position.Z }))
	// the inputs are non-empty, so these cannot fail
	s.MeanRMSE, _ = rmse.Mean()
	s.MaxRMSE, _ = rmse.Max()
	s.MeanZ, _ = heights.Mean()
	s.StdDevZ, _ = heights.StandardDeviation()
	return s
}

// RenderReport writes a table with one row per image, angles in degrees and positions in meters.
func RenderReport(w io.Writer, results []*Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Image", "X (m)", "Y (m)", "Z (m)", "Pitch (°)", "Roll (°)", "Yaw (°)", "RMSE (px)", "Error"})
	for i, res := range results {
		row := table.Row{i + 1, filepath.Base(res.Name)}
		if res.OK() {
			pos := res.Pose.Position
			row = append(row,
				fmt.Sprintf("%5.3f", pos.X),
				fmt.Sprintf("%5.3f", pos.Y),
				fmt.Sprintf("%5.3f", pos.Z),
				fmt.Sprintf("%6.3f", utils.RadToDeg(res.Pose.Pitch)),
				fmt.Sprintf("%6.3f", utils.RadToDeg(res.Pose.Roll)),
				fmt.Sprintf("%6.3f", utils.RadToDeg(res.Pose.Yaw)),
				fmt.Sprintf("%.2f", res.ReprojectionRMSE),
				"",
			)
		} else {
			errMsg := "no pose"
			if res.Err != nil {
				errMsg = res.Err.Error()
			}
			row = append(row, "", "", "", "", "", "", "", errMsg)
		}
		t.AppendRow(row)
	}
	s := Summarize(results)
	t.AppendFooter(table.Row{
		"", fmt.Sprintf("%d/%d resolved", s.Succeeded, s.Total), "", "",
		fmt.Sprintf("%5.3f ± %5.3f", s.MeanZ, s.StdDevZ), "", "", "",
		fmt.Sprintf("%.2f", s.MeanRMSE), "",
	})
	t.Render()
}

// WriteJSON writes the results and their summary as indented JSON.
func WriteJSON(w io.Writer, results []*Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Results []*Result `json:"results"`
		Summary Summary   `json:"summary"`
	}{results, Summarize(results)})
}

func writeHTML(res *Result, path string) error {
	var buf bytes.Buffer
	if err := visualize.Scene3DHTML(res.Pose, filepath.Base(res.Name), &buf); err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0o644), "writing %q", path)
}
