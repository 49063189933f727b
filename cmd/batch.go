package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"recast/internal/config"
	"recast/internal/format"
	"recast/internal/imgerr"
	"recast/internal/logging"
	"recast/internal/naming"
	"recast/internal/policy"
	"recast/internal/processor"
	"recast/internal/tui"
)

// errIncomplete is returned after the report has been printed, so Execute
// only sets the exit status.
var errIncomplete = errors.New("some files were not processed")

var (
	batchOutput     string
	batchAppend     string
	batchConvert    string
	batchQuality    float64
	batchResize     int
	batchTrim       string
	batchGrayscale  bool
	batchDoubleExt  bool
	batchDelete     bool
	batchYes        bool
	batchNo         bool
	batchThreads    int
	batchRecursive  bool
	batchView       bool
	batchConfigPath string
	batchPlain      bool
	batchLogLevel   string
	batchLogFormat  string
)

func registerBatchFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVarP(&batchOutput, "output", "o", "", "output file or directory")
	f.StringVarP(&batchAppend, "append", "a", "", "suffix added to output file names")
	f.StringVarP(&batchConvert, "convert", "c", "", "target format (jpeg, png, webp, bmp)")
	f.Float64VarP(&batchQuality, "quality", "q", 0, "compression quality in (0,100]")
	f.IntVarP(&batchResize, "resize", "r", 0, "resize ratio in percent, (0,100]")
	f.StringVarP(&batchTrim, "trim", "t", "", "crop rectangle as XxY+WxH")
	f.BoolVarP(&batchGrayscale, "grayscale", "g", false, "convert to grayscale")
	f.BoolVarP(&batchDoubleExt, "double-extension", "d", false, "append the new extension instead of replacing it")
	f.BoolVarP(&batchDelete, "delete", "D", false, "delete the source after a successful save")
	f.BoolVarP(&batchYes, "yes", "y", false, "overwrite existing files without asking")
	f.BoolVarP(&batchNo, "no", "n", false, "never overwrite existing files")
	f.IntVarP(&batchThreads, "threads", "T", 0, "number of worker threads (default from config, 4)")
	f.BoolVar(&batchRecursive, "recursive", false, "descend into subdirectories")
	f.BoolVarP(&batchView, "view", "v", false, "preview results in the terminal")
	f.StringVar(&batchConfigPath, "config", "", "config file (default ./"+config.BaseConfigFile+" if present)")
	f.BoolVar(&batchPlain, "plain", false, "print plain progress lines instead of the interactive view")
	f.StringVar(&batchLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&batchLogFormat, "log-format", "", "log format (text, json)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	if batchYes && batchNo {
		return imgerr.Wrap(imgerr.CategoryConfig, "flags", "", imgerr.ErrConflictingPolicy)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	reg := format.NewRegistry()
	ops, err := buildOps(cmd, reg, cfg)
	if err != nil {
		return err
	}
	if ops.Empty() && batchOutput == "" {
		return errors.New("nothing to do: use at least one of --convert, --quality, --resize, --trim, --grayscale or --output")
	}

	patterns := args
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	discover := processor.DiscoverOptions{Recursive: batchRecursive}
	if batchOutput != "" && naming.IsDirTarget(batchOutput) {
		discover.Exclude = batchOutput
	}
	files, err := processor.Discover(reg, patterns, discover)
	if err != nil && len(files) == 0 {
		return err
	}
	if len(files) == 0 {
		return errors.New("no image files found")
	}
	discoverErr := err

	stdinTTY := isTerminal(os.Stdin)
	useTUI := !batchPlain && stdinTTY && isTerminal(os.Stdout)

	var (
		tuiPrompter  *tui.Prompter
		linePrompter *tui.LinePrompter
		prompter     policy.Prompter
	)
	if stdinTTY {
		if useTUI {
			tuiPrompter = tui.NewPrompter()
			prompter = tuiPrompter
		} else {
			linePrompter = tui.NewLinePrompter(os.Stdin, os.Stdout)
			prompter = linePrompter
		}
	}

	var engine *policy.Engine
	if batchYes || batchNo {
		engine, err = policy.New(batchYes, batchNo, prompter)
		if err != nil {
			return err
		}
	} else {
		engine = policy.NewWithMode(cfg.OverwriteMode(), prompter)
	}

	var logFallback io.Writer = os.Stderr
	if useTUI {
		logFallback = nil
	}
	logger, closeLog, err := logging.Open(&cfg.Logging, logFallback)
	if err != nil {
		return err
	}
	defer closeLog()
	logger = logger.With("run", uuid.NewString())
	if discoverErr != nil {
		logger.Warn("some inputs were not found", "error", discoverErr)
	}

	jobs := make([]processor.Job, len(files))
	for i, path := range files {
		jobs[i] = processor.Job{
			Path:    path,
			Display: path,
			Ops:     ops,
			Naming: processor.Naming{
				Destination:     batchOutput,
				Append:          batchAppend,
				DoubleExtension: batchDoubleExt,
			},
		}
	}

	opts := processor.Options{
		Workers:      cfg.Batch.Workers,
		Policy:       engine,
		MaxInputSize: cfg.MaxInputBytes(),
		Logger:       logger,
	}
	if batchView {
		width := cfg.Preview.Width
		opts.Preview = func(img image.Image) string { return tui.RenderPreview(img, width) }
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	started := time.Now()
	var report processor.Report
	if useTUI {
		report = runInteractive(ctx, cancel, reg, jobs, opts, tuiPrompter)
	} else {
		report = runPlain(ctx, reg, jobs, opts, linePrompter)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, tui.RenderResults(report))
	fmt.Fprintln(out, tui.RenderSummary(tui.ReportRows(report, time.Since(started))))
	if discoverErr != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), discoverErr)
	}

	if !report.OK() || discoverErr != nil {
		return errIncomplete
	}
	return nil
}

func runInteractive(ctx context.Context, cancel context.CancelFunc, reg *format.Registry, jobs []processor.Job, opts processor.Options, prompter *tui.Prompter) processor.Report {
	var prompts <-chan tui.PromptRequest
	if prompter != nil && opts.Policy.Mode() == policy.Ask {
		prompts = prompter.Requests()
	}

	updates := make(chan processor.ProgressUpdate, 64)
	program := tea.NewProgram(tui.NewModel(updates, prompts, cancel))

	uiDone := make(chan struct{})
	go func() {
		if _, err := program.Run(); err != nil {
			opts.Logger.Error("terminal ui failed", "error", err)
			cancel()
		}
		close(uiDone)
	}()

	report := processor.Run(ctx, reg, jobs, opts, updates)
	close(updates)
	<-uiDone
	return report
}

func runPlain(ctx context.Context, reg *format.Registry, jobs []processor.Job, opts processor.Options, prompter *tui.LinePrompter) processor.Report {
	var w io.Writer = os.Stdout
	if prompter != nil {
		w = prompter.Writer()
	}

	updates := make(chan processor.ProgressUpdate, 64)
	printed := make(chan struct{})
	go func() {
		tui.PrintProgress(w, updates)
		close(printed)
	}()

	report := processor.Run(ctx, reg, jobs, opts, updates)
	close(updates)
	<-printed
	return report
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(batchConfigPath)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.CategoryConfig, "config", batchConfigPath, err)
	}
	if err := cfg.Finalize(); err != nil {
		return nil, imgerr.Wrap(imgerr.CategoryConfig, "config", batchConfigPath, err)
	}

	overlay := &config.Config{}
	if cmd.Flags().Changed("threads") {
		overlay.Batch.Workers = batchThreads
	}
	if batchYes {
		overlay.Batch.Overwrite = policy.AlwaysOverwrite.String()
	} else if batchNo {
		overlay.Batch.Overwrite = policy.NeverOverwrite.String()
	}
	overlay.Logging.Level = logging.Level(batchLogLevel)
	overlay.Logging.Format = logging.Format(batchLogFormat)
	cfg.Merge(overlay)

	if err := cfg.Validate(); err != nil {
		return nil, imgerr.Wrap(imgerr.CategoryConfig, "flags", "", err)
	}
	return cfg, nil
}

func buildOps(cmd *cobra.Command, reg *format.Registry, cfg *config.Config) (processor.Ops, error) {
	ops := processor.Ops{
		Resize:    batchResize,
		Grayscale: batchGrayscale,
		Delete:    batchDelete,
		View:      batchView,
	}

	if batchConvert != "" {
		codec, err := reg.Lookup(batchConvert)
		if err != nil {
			return ops, imgerr.Wrap(imgerr.CategoryConfig, "--convert", "", err)
		}
		ops.Convert = codec.Tag()
	}

	if cmd.Flags().Changed("quality") {
		if err := format.ValidateQuality(batchQuality); err != nil {
			return ops, imgerr.Wrap(imgerr.CategoryConfig, "--quality", "", err)
		}
		q := batchQuality
		ops.Quality = &q
	} else if q := cfg.Quality(); q != nil && (ops.Convert != "" || batchResize != 0 || batchTrim != "" || batchGrayscale) {
		ops.Quality = q
	}

	if cmd.Flags().Changed("resize") && (batchResize <= 0 || batchResize > 100) {
		return ops, imgerr.Wrap(imgerr.CategoryConfig, "--resize", "",
			fmt.Errorf("%w: ratio %d must be in (0,100]", imgerr.ErrInvalidParameter, batchResize))
	}

	if batchTrim != "" {
		rect, err := format.ParseRect(batchTrim)
		if err != nil {
			return ops, imgerr.Wrap(imgerr.CategoryConfig, "--trim", "", err)
		}
		if rect.W == 0 || rect.H == 0 {
			return ops, imgerr.Wrap(imgerr.CategoryConfig, "--trim", "",
				fmt.Errorf("%w: trim %s has no area", imgerr.ErrInvalidParameter, rect))
		}
		ops.Trim = &rect
	}

	return ops, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
