package extract

import (
	"fmt"
	"io"

	"github.com/ppiankov/sourcecheck/internal/logging"
	"github.com/ppiankov/sourcecheck/internal/model"
	"github.com/rs/zerolog"
)

const (
	entitiesField     = "ENTITIES_TO_USE"
	chatMessagesField = "ChatMessages"
)

// EntityExtractor builds an identifier index from a context snapshot
type EntityExtractor struct {
	logger *zerolog.Logger
}

// NewEntityExtractor creates a new entity extractor; a nil logger discards output
func NewEntityExtractor(logger *zerolog.Logger) *EntityExtractor {
	if logger == nil {
		logger = &logging.Nop
	}
	return &EntityExtractor{logger: logger}
}

// ExtractFile extracts entity identifiers from the JSONL file at path
func (e *EntityExtractor) ExtractFile(path string) (*model.EntityIndex, error) {
	file, err := openInput("context", path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	return e.Extract(file, path)
}

// Extract extracts entity identifiers from JSONL content.
// Malformed lines are logged, counted and skipped.
func (e *EntityExtractor) Extract(r io.Reader, path string) (*model.EntityIndex, error) {
	index := model.NewEntityIndex(path)

	err := scanRecords(r,
		func(line int, record map[string]any) {
			for _, entity := range objects(record[entitiesField]) {
				e.indexEntity(index, line, entity)
			}
		},
		func(lineErr *LineError) {
			index.Errors++
			e.logger.Warn().
				Str("path", path).
				Int("line", lineErr.Line).
				Err(lineErr.Err).
				Msg("Error parsing context line")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}

	return index, nil
}

// indexEntity records every identifier carried by one entity
func (e *EntityExtractor) indexEntity(index *model.EntityIndex, line int, entity map[string]any) {
	entityType := stringField(entity, "type", model.EntityTypeUnknown)

	for _, field := range model.IDFields {
		if id, ok := identifier(entity[field]); ok {
			e.set(index, id, model.EntityInfo{Type: entityType, IDField: field, Line: line})
			index.Group(entityType, id)
		}
	}

	if entityType == model.EntityTypeUser {
		if id, ok := identifier(entity[model.FieldMailNickName]); ok {
			e.set(index, id, model.EntityInfo{
				Type:        model.EntityTypeUser,
				IDField:     model.FieldMailNickName,
				Line:        line,
				DisplayName: stringField(entity, "DisplayName", ""),
			})
			index.Group(model.EntityTypeUser, id)
		}
	}

	if entityType == model.EntityTypeFile {
		if id, ok := identifier(entity[model.FieldFileLocation]); ok {
			e.set(index, id, model.EntityInfo{
				Type:     model.EntityTypeFile,
				IDField:  model.FieldFileLocation,
				Line:     line,
				FileName: stringField(entity, "FileName", ""),
			})
			index.Group(model.GroupFilePath, id)
		}
	}

	for _, msg := range objects(entity[chatMessagesField]) {
		if id, ok := identifier(msg[model.FieldChatMessageID]); ok {
			e.set(index, id, model.EntityInfo{
				Type:    model.EntityTypeChatMessage,
				IDField: model.FieldChatMessageID,
				Line:    line,
			})
			index.Group(model.EntityTypeChatMessage, id)
		}
	}
}

func (e *EntityExtractor) set(index *model.EntityIndex, id string, info model.EntityInfo) {
	prev, _ := index.Get(id)
	if index.Set(id, info) {
		e.logger.Debug().
			Str("id", id).
			Str("previous_type", prev.Type).
			Int("previous_line", prev.Line).
			Str("type", info.Type).
			Int("line", info.Line).
			Msg("Identifier redefined, keeping last")
	}
}
