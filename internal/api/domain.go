package api

import (
	"fmt"

	"github.com/JaimeStill/deck-translate/internal/config"
	"github.com/JaimeStill/deck-translate/internal/extraction"
	"github.com/JaimeStill/deck-translate/internal/files"
	"github.com/JaimeStill/deck-translate/internal/jobs"
	"github.com/JaimeStill/deck-translate/internal/reassembly"
	"github.com/JaimeStill/deck-translate/internal/translation"
)

// Domain holds the domain systems that comprise the API.
type Domain struct {
	Files files.System
	Jobs  *jobs.Orchestrator
}

// NewDomain wires the file and job systems onto the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) (*Domain, error) {
	db := runtime.Database.Connection()

	filesSys := files.New(
		files.NewPostgresStore(db),
		runtime.Storage,
		cfg.Storage.MaxUploadSizeBytes(),
		runtime.Logger,
	)

	extractor, err := extraction.New(&cfg.Extraction, runtime.Logger)
	if err != nil {
		return nil, fmt.Errorf("extraction: %w", err)
	}

	translator, err := translation.NewTranslator(&cfg.Translation, runtime.Logger)
	if err != nil {
		return nil, fmt.Errorf("translation: %w", err)
	}

	orchestrator := jobs.New(&cfg.Jobs, jobs.Deps{
		Store:       jobs.NewPostgresStore(db),
		Files:       filesSys,
		Blobs:       runtime.Storage,
		Extractor:   extractor,
		Batcher:     translation.NewBatcher(translator, runtime.Limiter, cfg.Translation.Options(), runtime.Logger),
		Reassembler: reassembly.New(runtime.Logger),
		Limiter:     runtime.Limiter,
		Publisher:   runtime.Events,
	}, runtime.Logger)

	return &Domain{
		Files: filesSys,
		Jobs:  orchestrator,
	}, nil
}

// Start attaches the orchestrator to the runtime lifecycle.
func (d *Domain) Start(runtime *Runtime) error {
	return d.Jobs.Start(runtime.Lifecycle)
}
