package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"go.viam.com/fiducialpose/visualize"
)

// ProcessBatch processes every image independently, at most parallelism at a time. Results are in
// the order of paths. A failing image only sets the Err of its own result. Images not yet started
// when ctx is canceled get the context error.
func (p *Processor) ProcessBatch(ctx context.Context, paths []string, parallelism int) []*Result {
	if parallelism < 1 {
		parallelism = 1
	}
	results := make([]*Result, len(paths))
	var g errgroup.Group
	g.SetLimit(parallelism)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = (&Result{Name: path}).fail(err)
				return nil
			}
			res := p.ProcessImage(ctx, path)
			if res.Err != nil {
				p.logger.Warnw("failed to resolve pose", "image", path, "error", res.Err)
			}
			results[i] = res
			return nil
		})
	}
	// workers record their failures on the results and never return an error
	_ = g.Wait()
	return results
}

// Outputs names the directories optional per-image artifacts are written to. Empty directories
// are skipped.
type Outputs struct {
	PlotDir     string
	HTMLDir     string
	AnnotateDir string
}

// WriteOutputs writes the plot, HTML scene and annotated image of a successful result.
func (p *Processor) WriteOutputs(ctx context.Context, res *Result, out Outputs) error {
	if !res.OK() {
		return nil
	}
	base := strings.TrimSuffix(filepath.Base(res.Name), filepath.Ext(res.Name))

	var errs error
	if out.PlotDir != "" {
		path := filepath.Join(out.PlotDir, base+"_pose.png")
		errs = multierr.Append(errs, errors.Wrap(visualize.PlotPNG(res.Pose, path), "plotting pose"))
	}
	if out.HTMLDir != "" {
		path := filepath.Join(out.HTMLDir, base+"_pose.html")
		errs = multierr.Append(errs, errors.Wrap(writeHTML(res, path), "rendering scene"))
	}
	if out.AnnotateDir != "" {
		if annotator, ok := p.detector.(Annotator); ok {
			path := filepath.Join(out.AnnotateDir, base+"_markers.png")
			errs = multierr.Append(errs, errors.Wrap(annotator.Annotate(ctx, res.Name, path, res.Roles), "annotating image"))
		} else {
			p.logger.Debugw("detector cannot annotate images", "image", res.Name)
		}
	}
	return errs
}
