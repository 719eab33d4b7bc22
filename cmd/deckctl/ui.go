package main

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/JaimeStill/deck-translate/internal/jobs"
)

var (
	success = color.New(color.FgGreen, color.Bold)
	warning = color.New(color.FgYellow)
	failure = color.New(color.FgRed, color.Bold)
	faint   = color.New(color.Faint)
)

// display renders job progress: a spinner until the unit count is known,
// then a progress bar over translated units.
type display struct {
	out     io.Writer
	spinner *spinner.Spinner
	bar     *progressbar.ProgressBar
}

func newDisplay(out io.Writer) *display {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.Suffix = " uploading"
	s.Start()
	return &display{out: out, spinner: s}
}

func (d *display) update(status *jobs.JobStatus) {
	if status.Status != jobs.StatusTranslating || status.UnitsTotal == 0 {
		if d.bar == nil {
			d.spinner.Suffix = " " + string(status.Status)
		}
		return
	}

	if d.bar == nil {
		d.spinner.Stop()
		d.bar = progressbar.NewOptions(
			status.UnitsTotal,
			progressbar.OptionSetWriter(d.out),
			progressbar.OptionSetDescription("translating"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("units"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "█",
				SaucerHead:    "█",
				SaucerPadding: "░",
				BarStart:      "│",
				BarEnd:        "│",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(d.out)
			}),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	_ = d.bar.Set(status.UnitsProcessed)
}

func (d *display) finish() {
	if d.bar != nil {
		_ = d.bar.Finish()
		return
	}
	d.spinner.Stop()
}
