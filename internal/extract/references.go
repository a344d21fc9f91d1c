package extract

import (
	"fmt"
	"io"

	"github.com/ppiankov/sourcecheck/internal/logging"
	"github.com/ppiankov/sourcecheck/internal/model"
	"github.com/rs/zerolog"
)

// Snippet lengths used in usage and audit records
const (
	UtteranceSnippetLen = 50
	AssertionSnippetLen = 60
	AuditTextLen        = 80
)

// ReferenceExtractor collects the source identifiers cited by assertions
type ReferenceExtractor struct {
	logger *zerolog.Logger
}

// NewReferenceExtractor creates a new reference extractor; a nil logger discards output
func NewReferenceExtractor(logger *zerolog.Logger) *ReferenceExtractor {
	if logger == nil {
		logger = &logging.Nop
	}
	return &ReferenceExtractor{logger: logger}
}

// ExtractFile extracts source identifier references from the JSONL file at path
func (e *ReferenceExtractor) ExtractFile(path string) (*model.ReferenceIndex, error) {
	file, err := openInput("output", path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	return e.Extract(file, path)
}

// Extract extracts source identifier references from JSONL content
func (e *ReferenceExtractor) Extract(r io.Reader, path string) (*model.ReferenceIndex, error) {
	index := model.NewReferenceIndex(path)

	err := scanRecords(r,
		func(line int, record map[string]any) {
			e.indexRecord(index, line, record)
		},
		func(lineErr *LineError) {
			index.Errors++
			e.logger.Warn().
				Str("path", path).
				Int("line", lineErr.Line).
				Err(lineErr.Err).
				Msg("Error parsing output line")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}

	return index, nil
}

func (e *ReferenceExtractor) indexRecord(index *model.ReferenceIndex, line int, record map[string]any) {
	utterance := snippet(stringField(record, "utterance", ""), UtteranceSnippetLen)

	// Indices count every list element so they match the source file
	assertions, _ := record["assertions"].([]any)
	for idx, item := range assertions {
		assertion, ok := item.(map[string]any)
		if !ok {
			continue
		}

		sourceID, ok := SourceID(assertion)
		if !ok {
			continue
		}

		text := stringField(assertion, "text", "")
		index.Add(sourceID, model.Usage{
			Line:           line,
			Utterance:      utterance,
			AssertionIndex: idx,
			AssertionText:  snippet(text, AssertionSnippetLen),
		})
		index.Audit = append(index.Audit, model.AuditRecord{
			Line:          line,
			SourceID:      sourceID,
			Utterance:     utterance,
			AssertionText: truncate(text, AuditTextLen),
		})
	}
}

// SourceID returns the source identifier cited by an assertion.
// The justification object is read from "justification", falling back to
// "reasoning"; the identifier from "sourceID", falling back to "sourceId".
func SourceID(assertion map[string]any) (string, bool) {
	raw, ok := lookup(assertion, "justification", "reasoning")
	if !ok {
		return "", false
	}
	justification, ok := raw.(map[string]any)
	if !ok {
		return "", false
	}
	return firstIdentifier(justification, "sourceID", "sourceId")
}
