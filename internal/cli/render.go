package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/etulastrada/ideconfy/pkg/errors"
	"github.com/etulastrada/ideconfy/pkg/pipeline"
	"github.com/etulastrada/ideconfy/pkg/render"
)

// stdoutPath selects standard output instead of a file.
const stdoutPath = "-"

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string
	formats string
	size    int
	scale   float64
	width   int
	height  int
	refresh bool
}

// renderCommand writes identicon artifacts through the cached pipeline.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <content>",
		Short: "Render an identicon to SVG and raster files",
		Long: `Render an identicon in one or more formats.

With a single format, -o names the file (or "-" for stdout). With several
formats, -o is a base path and each format gets its own extension. Without
-o, files are named after the content.`,
		Example: `  ideconfy render hello                    # hello.svg
  ideconfy render hello -f svg,png -o out/hello
  ideconfy render hello -f png --width 512 --height 512 -o -  > hello.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output file, base path, or "-" for stdout`)
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, jpeg, bmp (comma-separated)")
	cmd.Flags().IntVarP(&opts.size, "size", "s", 0, "grid size (default from config, 5)")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "SVG cell side (default from config, 20)")
	cmd.Flags().IntVar(&opts.width, "width", 0, "raster width (default size x 42)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "raster height (default size x 42)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts")
	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, content string, ro renderOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := pipeline.Options{
		Content: content,
		Size:    ro.size,
		Scale:   ro.scale,
		Width:   ro.width,
		Height:  ro.height,
		Formats: parseFormats(ro.formats),
		Refresh: ro.refresh,
		Logger:  c.Logger,
	}
	if ro.formats == "" {
		opts.Formats = cfg.Render.Formats
	}
	if opts.Size == 0 {
		opts.Size = cfg.Render.Size
	}
	if opts.Scale == 0 {
		opts.Scale = cfg.Render.Scale
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	paths, err := outputPaths(content, ro.output, opts.Formats)
	if err != nil {
		return err
	}

	prog := newProgress(loggerFromContext(cmd.Context()))
	res, err := runner.Execute(cmd.Context(), opts)
	if err != nil {
		return err
	}

	for _, f := range opts.Formats {
		data := res.Artifacts[f]
		if data == nil {
			return errors.New(errors.ErrCodeInvalidInput, "nothing to render for %s", f)
		}
		if paths[f] == stdoutPath {
			format, _ := render.ParseFormat(f)
			return writeStdout(cmd.OutOrStdout(), data, format)
		}
		if err := writeFile(paths[f], data); err != nil {
			return err
		}
		printFile(paths[f], res.CacheHit)
	}
	prog.done("rendered identicon", "color", res.Identicon.Color.Hex())
	return nil
}

// outputPaths maps each format to its destination. A single format with
// an explicit output keeps that name; otherwise output (or the sanitized
// content) is a base path that gets one extension per format.
func outputPaths(content, output string, formats []string) (map[string]string, error) {
	paths := make(map[string]string, len(formats))
	if output == stdoutPath {
		if len(formats) != 1 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "stdout output needs exactly one format, got %d", len(formats))
		}
		paths[formats[0]] = stdoutPath
		return paths, nil
	}

	if output != "" {
		if err := errors.ValidateOutputPath(output); err != nil {
			return nil, err
		}
	}
	if len(formats) == 1 && filepath.Ext(output) != "" {
		paths[formats[0]] = output
		return paths, nil
	}

	base := output
	if base == "" {
		base = errors.SanitizeFilename(content)
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	for _, name := range formats {
		f, err := render.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		paths[name] = base + f.Ext()
	}
	return paths, nil
}

// writeStdout writes data to w, refusing binary output to a terminal.
func writeStdout(w io.Writer, data []byte, f render.Format) error {
	if f.IsRaster() {
		if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
			return errors.New(errors.ErrCodeInvalidPath, "refusing to write %s data to a terminal; redirect stdout or use -o", f)
		}
	}
	_, err := io.Copy(w, bytes.NewReader(data))
	return err
}

// writeFile writes data to path, creating parent directories.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
