package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/fiducialpose/campose"
	"go.viam.com/fiducialpose/config"
	"go.viam.com/fiducialpose/fiducial"
	"go.viam.com/fiducialpose/logging"
	"go.viam.com/fiducialpose/pipeline"
	"go.viam.com/fiducialpose/rimage/transform"
	"go.viam.com/fiducialpose/vision/blobs"
)

// errNoPoses is returned by solve when not a single image resolved.
var errNoPoses = errors.New("no camera pose could be resolved")

func loadConfig(c *cli.Context, logger logging.Logger) (*config.Config, error) {
	path := c.String(generalFlagConfig)
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Read(path, logger)
}

// SolveAction runs the full pipeline over the image arguments.
func SolveAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("no images given. use --help for more information")
	}
	logger := logging.NewLogger("fiducialpose")
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	intrinsics, err := cfg.Camera.Intrinsics()
	if err != nil {
		return err
	}
	detector, err := blobs.NewDetector(
		intrinsics.Width, intrinsics.Height,
		cfg.Preprocess.BlurKernel, cfg.Preprocess.MinMarkerArea,
		logger.Sublogger("blobs"))
	if err != nil {
		return err
	}
	processor, err := pipeline.NewProcessor(cfg, detector, logger)
	if err != nil {
		return err
	}

	parallelism := cfg.Batch.Parallelism
	if c.IsSet(solveFlagParallel) {
		parallelism = c.Int(solveFlagParallel)
	}
	results := processor.ProcessBatch(c.Context, c.Args().Slice(), parallelism)

	outputs := pipeline.Outputs{
		PlotDir:     c.Path(solveFlagPlotDir),
		HTMLDir:     c.Path(solveFlagHTMLDir),
		AnnotateDir: c.Path(solveFlagAnnotateDir),
	}
	var errs error
	if outputs != (pipeline.Outputs{}) {
		for _, dir := range []string{outputs.PlotDir, outputs.HTMLDir, outputs.AnnotateDir} {
			if dir != "" {
				errs = multierr.Append(errs, os.MkdirAll(dir, 0o750))
			}
		}
		if errs != nil {
			return errs
		}
		for _, res := range results {
			errs = multierr.Append(errs, errors.Wrap(processor.WriteOutputs(c.Context, res, outputs), res.Name))
		}
	}

	if c.Bool(solveFlagJSON) {
		errs = multierr.Append(errs, pipeline.WriteJSON(c.App.Writer, results))
	} else {
		pipeline.RenderReport(c.App.Writer, results)
	}
	if pipeline.Summarize(results).Succeeded == 0 {
		errs = multierr.Append(errs, errNoPoses)
	}
	return errs
}

type candidateJSON struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Area float64 `json:"area"`
}

func readCandidates(path string) ([]fiducial.MarkerCandidate, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []candidateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "decoding candidates in %q", path)
	}
	candidates := make([]fiducial.MarkerCandidate, 0, len(raw))
	for _, rc := range raw {
		candidates = append(candidates, fiducial.NewMarkerCandidate(rc.X, rc.Y, rc.Area))
	}
	return candidates, nil
}

// ClassifyAction prints the role of each candidate in a JSON file.
func ClassifyAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one candidates file")
	}
	candidates, err := readCandidates(c.Args().First())
	if err != nil {
		return err
	}
	roles, err := fiducial.Classify(candidates)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"Role", "X (px)", "Y (px)"})
	for _, role := range fiducial.Roles {
		p := roles.Get(role)
		t.AppendRow(table.Row{role.String(), fmt.Sprintf("%.2f", p.X), fmt.Sprintf("%.2f", p.Y)})
	}
	t.Render()
	return nil
}

// parseVector parses "x,y,z".
func parseVector(s string) (r3.Vector, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return r3.Vector{}, errors.Errorf("expected three comma separated components, got %q", s)
	}
	var xyz [3]float64
	for i, part := range parts {
		v, err := cast.ToFloat64E(strings.TrimSpace(part))
		if err != nil {
			return r3.Vector{}, errors.Wrapf(err, "component %d of %q", i, s)
		}
		xyz[i] = v
	}
	return r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// ResolveAction resolves a pose estimate given on the command line.
func ResolveAction(c *cli.Context) error {
	rvec, err := parseVector(c.String(resolveFlagRVec))
	if err != nil {
		return errors.Wrap(err, resolveFlagRVec)
	}
	tvec, err := parseVector(c.String(resolveFlagTVec))
	if err != nil {
		return errors.Wrap(err, resolveFlagTVec)
	}
	pose, err := campose.Resolve(campose.PoseEstimate{RotationVector: rvec, TranslationVector: tvec})
	if err != nil {
		return err
	}
	yaw, pitch, roll := pose.Degrees()

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"X (m)", "Y (m)", "Z (m)", "Pitch (°)", "Roll (°)", "Yaw (°)"})
	t.AppendRow(table.Row{
		fmt.Sprintf("%5.3f", pose.Position.X),
		fmt.Sprintf("%5.3f", pose.Position.Y),
		fmt.Sprintf("%5.3f", pose.Position.Z),
		fmt.Sprintf("%6.3f", pitch),
		fmt.Sprintf("%6.3f", roll),
		fmt.Sprintf("%6.3f", yaw),
	})
	t.Render()

	if intercept, err := pose.GroundIntercept(); err == nil {
		fmt.Fprintf(c.App.Writer, "view ray meets the pattern plane at (%.3f, %.3f)\n", intercept.X, intercept.Y)
	} else {
		fmt.Fprintln(c.App.Writer, "view ray is parallel to the pattern plane")
	}
	return nil
}

// ConfigAction prints the configuration in effect as JSON.
func ConfigAction(c *cli.Context) error {
	cfg, err := loadConfig(c, logging.NewLogger("fiducialpose"))
	if err != nil {
		return err
	}
	intrinsics, err := cfg.Camera.Intrinsics()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		*config.Config
		Intrinsics *transform.PinholeCameraIntrinsics `json:"effective_intrinsics"`
	}{cfg, intrinsics})
}
