package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ppiankov/sourcecheck/internal/cache"
	"github.com/ppiankov/sourcecheck/internal/extract"
	"github.com/ppiankov/sourcecheck/internal/logging"
	"github.com/ppiankov/sourcecheck/internal/model"
	"github.com/ppiankov/sourcecheck/internal/reconcile"
	"github.com/rs/zerolog"
)

// Pipeline orchestrates a sourceID recovery run
type Pipeline struct {
	entities   *extract.EntityExtractor
	references *extract.ReferenceExtractor
	renderer   *Renderer
	cache      cache.Cache
	config     *model.Config
	logger     *zerolog.Logger
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, logger *zerolog.Logger) *Pipeline {
	if logger == nil {
		logger = &logging.Nop
	}

	var c cache.Cache = cache.Noop{}
	if cfg.Cache.Enabled {
		c = cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.TTL)
	}

	return &Pipeline{
		entities:   extract.NewEntityExtractor(logger),
		references: extract.NewReferenceExtractor(logger),
		renderer:   NewRenderer(cfg.Recovery.SampleSize, cfg.Recovery.UsageExamples),
		cache:      c,
		config:     cfg,
		logger:     logger,
	}
}

// RecoveryResult contains everything a recovery run produced
type RecoveryResult struct {
	NewContext *model.EntityIndex
	OldContext *model.EntityIndex // nil when no old context was read
	References *model.ReferenceIndex
	Comparison reconcile.Comparison
	Report     *model.RecoveryReport
}

// Recover extracts, reconciles and builds the report without writing anything
func (p *Pipeline) Recover(ctx context.Context) (*RecoveryResult, error) {
	paths := p.config.Recovery

	// 1. Required inputs must exist before any extraction starts
	if err := requireFile("context", paths.ContextFile); err != nil {
		return nil, err
	}
	if err := requireFile("output", paths.OutputFile); err != nil {
		return nil, err
	}

	// 2. Extract entity identifiers from the new context
	newIdx, err := p.loadEntities(paths.ContextFile)
	if err != nil {
		return nil, fmt.Errorf("extract context: %w", err)
	}
	p.logger.Debug().
		Str("path", paths.ContextFile).
		Int("ids", newIdx.Len()).
		Int("collisions", newIdx.Collisions).
		Msg("Extracted context entities")

	// 3. Extract the old context when one is configured and present
	var oldIdx *model.EntityIndex
	if paths.OldContextFile != "" {
		if _, statErr := os.Stat(paths.OldContextFile); statErr == nil {
			oldIdx, err = p.loadEntities(paths.OldContextFile)
			if err != nil {
				return nil, fmt.Errorf("extract old context: %w", err)
			}
		} else {
			p.logger.Info().Str("path", paths.OldContextFile).Msg("Old context file not found, skipping comparison")
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 4. Extract cited source identifiers
	refs, err := p.references.ExtractFile(paths.OutputFile)
	if err != nil {
		return nil, fmt.Errorf("extract output: %w", err)
	}

	// 5. Reconcile; an empty old context is not compared against
	var compareOld *model.EntityIndex
	if oldIdx != nil && oldIdx.Len() > 0 {
		compareOld = oldIdx
	}
	cmp := reconcile.Compare(refs, newIdx, compareOld)

	return &RecoveryResult{
		NewContext: newIdx,
		OldContext: oldIdx,
		References: refs,
		Comparison: cmp,
		Report:     reconcile.BuildReport(refs, newIdx, cmp),
	}, nil
}

// Run performs a full recovery: reconcile, print the console report to w
// and persist the JSON report
func (p *Pipeline) Run(ctx context.Context, w io.Writer) (*RecoveryResult, error) {
	result, err := p.Recover(ctx)
	if err != nil {
		return nil, err
	}

	if err := p.renderer.Render(w, result); err != nil {
		return nil, fmt.Errorf("render console report: %w", err)
	}

	reportPath := p.config.Recovery.ReportFile
	if err := WriteReport(result.Report, reportPath); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	if _, err := fmt.Fprintf(w, "\nDetailed report saved to: %s\n", reportPath); err != nil {
		return nil, err
	}

	return result, nil
}

// loadEntities extracts a context file, reusing an earlier parse of the same file
func (p *Pipeline) loadEntities(path string) (*model.EntityIndex, error) {
	key, err := cache.FileKey("entities", path)
	if err == nil {
		if cached, ok := p.cache.Get(key); ok {
			p.logger.Debug().Str("path", path).Msg("Using cached context extraction")
			return cached.(*model.EntityIndex), nil
		}
	}

	idx, err := p.entities.ExtractFile(path)
	if err != nil {
		return nil, err
	}

	if key != "" {
		p.cache.Set(key, idx, 0)
	}
	return idx, nil
}

// requireFile reports a missing or unreadable required input
func requireFile(role, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return model.NewInputError(role, path, err)
	}
	if info.IsDir() {
		return model.NewInputError(role, path, fmt.Errorf("is a directory: %w", fs.ErrInvalid))
	}
	return nil
}

// WriteReport writes the report as indented JSON, creating parent directories
func WriteReport(report *model.RecoveryReport, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	return nil
}

// IsMissingInput reports whether err is a missing required input
func IsMissingInput(err error) bool {
	return errors.Is(err, model.ErrInputNotFound)
}
