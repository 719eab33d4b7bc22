package extraction

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"time"

	"github.com/JaimeStill/deck-translate/internal/deck"
	"github.com/JaimeStill/deck-translate/pkg/apperror"
)

const (
	stderrLimit = 64 * 1024
	waitDelay   = 2 * time.Second
	sourceName  = "source.pptx"
)

// Process runs an external extraction tool once per call. The tool receives
// the path of a private copy of the source as its last argument.
type Process struct {
	command   string
	args      []string
	env       []string
	timeout   time.Duration
	maxOutput int64
	tempDir   string
	logger    *slog.Logger
}

// NewProcess creates a process extractor from a finalized config.
func NewProcess(cfg *Config, logger *slog.Logger) *Process {
	return &Process{
		command:   cfg.Command,
		args:      slices.Clone(cfg.Args),
		env:       slices.Clone(cfg.Env),
		timeout:   cfg.TimeoutDuration(),
		maxOutput: cfg.MaxOutputSizeBytes(),
		tempDir:   cfg.TempDir,
		logger:    logger.With("system", "extraction"),
	}
}

func (p *Process) Extract(ctx context.Context, source []byte, timeout time.Duration) ([]deck.TextUnit, error) {
	if timeout <= 0 {
		timeout = p.timeout
	}
	if len(source) == 0 {
		return nil, processingFailed("empty_source", "source is empty")
	}

	dir, err := os.MkdirTemp(p.tempDir, "deck-extract-*")
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, err, "create extraction workspace")
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, sourceName)
	if err := os.WriteFile(path, source, 0600); err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, err, "write extraction source")
	}

	stdout := &limitedBuffer{limit: p.maxOutput}
	stderr := &limitedBuffer{limit: stderrLimit}

	cmd := exec.Command(p.command, append(slices.Clone(p.args), path)...)
	cmd.Env = append(os.Environ(), p.env...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, processingFailed("start_failed", "extraction tool could not start").
			WithDetail("command", p.command).
			WithDetail("error", err.Error())
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return p.result(err, stdout, stderr, time.Since(start))

	case <-timer.C:
		p.kill(cmd, done)
		p.logger.Warn("extraction timed out", "timeout", timeout, "pid", cmd.Process.Pid)
		return nil, processingTimeout(timeout)

	case <-ctx.Done():
		p.kill(cmd, done)
		p.logger.Info("extraction cancelled", "pid", cmd.Process.Pid)
		return nil, apperror.Classify(ctx.Err())
	}
}

func (p *Process) kill(cmd *exec.Cmd, done <-chan error) {
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.logger.Error("kill extraction process failed", "pid", cmd.Process.Pid, "error", err)
	}
	<-done
}

func (p *Process) result(waitErr error, stdout, stderr *limitedBuffer, elapsed time.Duration) ([]deck.TextUnit, error) {
	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, processingFailed("wait_failed", "extraction tool did not complete").
				WithDetail("error", waitErr.Error())
		}
		exitCode = exitErr.ExitCode()
	}

	if stdout.overflow {
		return nil, processingFailed("output_too_large", "extraction output exceeded limit").
			WithDetail("limitBytes", p.maxOutput)
	}

	units, parseErr := ParsePayload(stdout.Bytes())

	if exitCode != 0 {
		if parseErr == nil {
			p.logger.Warn("extraction exited non-zero with usable output",
				"exit_code", exitCode,
				"units", len(units),
			)
			return units, nil
		}
		return nil, processingFailed("process_exited", "extraction tool failed").
			WithDetail("exitCode", exitCode).
			WithDetail("stderr", stderr.String())
	}

	if parseErr != nil {
		return nil, processingFailed("malformed_output", "extraction output could not be parsed").
			WithDetail("parseError", parseErr.Error()).
			WithDetail("stderr", stderr.String())
	}

	p.logger.Debug("extraction complete", "units", len(units), "elapsed", elapsed)
	return units, nil
}

// limitedBuffer keeps at most limit bytes and records whether more arrived.
// It never returns a write error so the child is not blocked on a full pipe.
type limitedBuffer struct {
	buf      bytes.Buffer
	limit    int64
	overflow bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	room := b.limit - int64(b.buf.Len())
	if room <= 0 {
		b.overflow = b.overflow || len(p) > 0
		return len(p), nil
	}
	if int64(len(p)) > room {
		b.buf.Write(p[:room])
		b.overflow = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *limitedBuffer) Bytes() []byte {
	return b.buf.Bytes()
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}
