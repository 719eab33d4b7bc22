package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/deck-translate/internal/config"
	"github.com/JaimeStill/deck-translate/internal/extraction"
	"github.com/JaimeStill/deck-translate/internal/files"
	"github.com/JaimeStill/deck-translate/internal/jobs"
	"github.com/JaimeStill/deck-translate/internal/reassembly"
	"github.com/JaimeStill/deck-translate/internal/translation"
	"github.com/JaimeStill/deck-translate/pkg/apperror"
	"github.com/JaimeStill/deck-translate/pkg/logging"
	"github.com/JaimeStill/deck-translate/pkg/storage"
)

const pollInterval = 250 * time.Millisecond

var translateFlags struct {
	lang      string
	out       string
	local     bool
	batchSize int
	verbose   bool
}

var translateCmd = &cobra.Command{
	Use:   "translate <deck.pptx>",
	Short: "Translate a deck and write the translated copy",
	Long: `Translate every text unit in a deck and write the result next to the
input as <name>.<lang>.pptx. Interrupting with Ctrl-C stops dispatching new
batches and writes the partially translated deck.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the configured target languages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if len(cfg.Translation.Languages) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "any language accepted")
			return nil
		}
		for _, l := range cfg.Translation.Languages {
			fmt.Fprintln(cmd.OutOrStdout(), l)
		}
		return nil
	},
}

func init() {
	f := translateCmd.Flags()
	f.StringVarP(&translateFlags.lang, "lang", "l", "", "target language code (required)")
	f.StringVarP(&translateFlags.out, "out", "o", "", "output path (default <name>.<lang>.pptx beside the input)")
	f.BoolVar(&translateFlags.local, "local", false, "extract in-process instead of running the extractor command")
	f.IntVar(&translateFlags.batchSize, "batch-size", 0, "units per translation batch (default from config)")
	f.BoolVarP(&translateFlags.verbose, "verbose", "v", false, "log pipeline activity")
	translateCmd.MarkFlagRequired("lang")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if translateFlags.local {
		cfg.Extraction.Mode = extraction.ModeLocal
	}
	if translateFlags.batchSize > 0 {
		cfg.Translation.BatchSize = translateFlags.batchSize
	}

	logCfg := cfg.Logging
	logCfg.Level = logging.LevelError
	logCfg.Output = logging.OutputStderr
	if translateFlags.verbose {
		logCfg.Level = logging.LevelDebug
	}
	logger := logging.New(&logCfg)

	orch, fileSys, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	source := args[0]
	data, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("read %s: %w", source, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	const user = "deckctl"
	f, err := fileSys.Upload(ctx, files.UploadCommand{
		UserID:   user,
		Filename: filepath.Base(source),
		Data:     data,
	})
	if err != nil {
		return describe(err)
	}

	id, err := orch.StartTranslation(ctx, f.ID, user, translateFlags.lang)
	if err != nil {
		return describe(err)
	}

	status, err := follow(ctx, orch, id)
	if err != nil {
		return err
	}

	if status.Status == jobs.StatusFailed && status.Error != nil {
		return describe(apperror.New(apperror.Code(status.Error.Code), status.Error.Message).
			WithUserMessage(status.Error.Message))
	}

	output, name, err := orch.GetOutput(context.WithoutCancel(ctx), id)
	if err != nil {
		return describe(err)
	}

	target := translateFlags.out
	if target == "" {
		target = filepath.Join(filepath.Dir(source), name)
	}
	if err := os.WriteFile(target, output, 0644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}

	report(cmd, status, f.SlideCount, target)
	return nil
}

func buildPipeline(cfg *config.Config, logger *slog.Logger) (*jobs.Orchestrator, files.System, error) {
	blobs := storage.NewMemory()
	fileSys := files.New(files.NewMemoryStore(), blobs, cfg.Storage.MaxUploadSizeBytes(), logger)

	extractor, err := extraction.New(&cfg.Extraction, logger)
	if err != nil {
		return nil, nil, err
	}

	translator, err := translation.NewTranslator(&cfg.Translation, logger)
	if err != nil {
		return nil, nil, err
	}

	orch := jobs.New(&cfg.Jobs, jobs.Deps{
		Store:       jobs.NewMemoryStore(),
		Files:       fileSys,
		Blobs:       blobs,
		Extractor:   extractor,
		Batcher:     translation.NewBatcher(translator, nil, cfg.Translation.Options(), logger),
		Reassembler: reassembly.New(logger),
	}, logger)

	return orch, fileSys, nil
}

// follow polls the job until it reaches a terminal state. An interrupt
// cancels the job once and keeps following it so partial output is kept.
func follow(ctx context.Context, orch *jobs.Orchestrator, id uuid.UUID) (*jobs.JobStatus, error) {
	d := newDisplay(os.Stderr)
	defer d.finish()

	bg := context.WithoutCancel(ctx)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	interrupted := ctx.Done()
	for {
		status, err := orch.GetJobStatus(bg, id)
		if err != nil {
			return nil, describe(err)
		}
		d.update(status)
		if status.Status.Terminal() {
			return status, nil
		}

		select {
		case <-interrupted:
			interrupted = nil
			if err := orch.Cancel(bg, id); err != nil && !apperror.Is(err, apperror.CodeInvalidStateTransition) {
				return nil, describe(err)
			}
		case <-ticker.C:
		}
	}
}

func report(cmd *cobra.Command, status *jobs.JobStatus, slides int, target string) {
	out := cmd.OutOrStdout()

	success.Fprintf(out, "translated %d of %d units", status.Translated, status.UnitsTotal)
	faint.Fprintf(out, " (%d slides, %s)\n", slides, status.TargetLanguage)

	if status.Fallback > 0 {
		warning.Fprintf(out, "%d units kept their original text after translation failed\n", status.Fallback)
	}
	if pending := status.UnitsTotal - status.UnitsProcessed; status.Cancelled && pending > 0 {
		warning.Fprintf(out, "cancelled: %d units were not translated\n", pending)
	}

	fmt.Fprintf(out, "wrote %s\n", target)
}

// describe renders err with its code and user-facing message.
func describe(err error) error {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return err
	}
	msg := appErr.UserMessage
	if translateFlags.verbose || msg == "" {
		msg = appErr.Error()
	}
	if n, ok := appErr.RetryAfterSeconds(); ok {
		msg = fmt.Sprintf("%s (retry after %ds)", msg, n)
	}
	return fmt.Errorf("%s: %s", appErr.Code, msg)
}
