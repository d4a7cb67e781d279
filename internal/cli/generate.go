package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wafermask/pkg/job"
	"github.com/matzehuels/wafermask/pkg/pipeline"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	output    string // output directory
	formats   string // comma-separated output formats
	width     int    // preview width in pixels
	workers   int    // concurrent section generation
	refresh   bool   // bypass cached artifacts
	noCache   bool   // disable the artifact cache
	noHistory bool   // do not record the run
}

// generateCommand creates the generate command that writes mask files.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate [job.toml]",
		Short: "Generate the mask layout of a job",
		Long: `Generate the mask layout of a job.

Every configured section is filled with its structures, clipped against the
margin outline and written as a GDSII stream. Previews in SVG, PNG or PDF
and a JSON shape export can be requested with -f.

Results are cached locally; unchanged jobs are served from the cache.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultJobFile
			if len(args) == 1 {
				path = args[0]
			}
			return c.runGenerate(cmd.Context(), path, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (default: next to the job file)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): gds (default), svg, png, pdf, json (comma-separated)")
	cmd.Flags().IntVar(&opts.width, "width", 0, "preview width in pixels")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "sections generated in parallel (default: number of CPUs)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "regenerate even when cached")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "do not record the run in the history")

	return cmd
}

// runGenerate loads the job, runs the pipeline and writes every artifact.
func (c *CLI) runGenerate(ctx context.Context, path string, opts generateOpts) error {
	j, err := job.Load(path)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache, opts.noHistory)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close(context.Background())

	popts := pipeline.Options{
		Formats: parseFormats(opts.formats),
		Width:   opts.width,
		Refresh: opts.refresh,
		Workers: opts.workers,
		Logger:  c.Logger,
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Generating %s...", j.Name))
	restore := withSpinnerHooks(spinner)
	spinner.Start()

	result, err := runner.Execute(ctx, j, popts)
	restore()
	if err != nil {
		spinner.StopWithError("Generation failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	dir := opts.output
	if dir == "" {
		dir = filepath.Dir(path)
	}
	paths, err := writeArtifacts(dir, j, result.Artifacts, popts.Formats)
	if err != nil {
		return err
	}

	printSuccess("Generated %s", j.Name)
	for _, p := range paths {
		printFile(p)
	}
	printStats(len(result.Report.Sections), result.Report.Shapes,
		result.Stats.GenerateTime+result.Stats.RenderTime, result.CacheHit)
	if data, ok := result.Artifacts[pipeline.FormatGDS]; ok && len(data) > 0 {
		printNewline()
		printNextStep("Inspect", "wafermask inspect "+filepath.Join(dir, pipeline.FileName(j, pipeline.FormatGDS)))
	}

	return nil
}

// writeArtifacts writes one file per format into dir and returns the paths
// in format order.
func writeArtifacts(dir string, j *job.Job, artifacts map[string][]byte, formats []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		data, ok := artifacts[f]
		if !ok {
			continue
		}
		p := filepath.Join(dir, pipeline.FileName(j, f))
		if err := os.WriteFile(p, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
