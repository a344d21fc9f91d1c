package extract

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ppiankov/sourcecheck/internal/model"
)

// LineError describes a JSONL line that could not be decoded
type LineError struct {
	Line int
	Err  error
}

// Error implements the error interface
func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Unwrap returns the underlying decode error
func (e *LineError) Unwrap() error {
	return e.Err
}

var errNotObject = errors.New("line is not a JSON object")

// recordFunc receives one decoded record and its 1-based line number
type recordFunc func(line int, record map[string]any)

// errorFunc receives lines that failed to decode
type errorFunc func(err *LineError)

// scanRecords decodes every non-blank line of r as a JSON object.
// Decode failures are handed to onErr and scanning continues.
func scanRecords(r io.Reader, onRecord recordFunc, onErr errorFunc) error {
	reader := bufio.NewReader(r)
	lineNum := 0

	for {
		raw, readErr := reader.ReadBytes('\n')
		if len(raw) > 0 {
			lineNum++
			line := bytes.TrimSpace(raw)
			if len(line) > 0 {
				record, err := decodeObject(line)
				if err != nil {
					onErr(&LineError{Line: lineNum, Err: err})
				} else {
					onRecord(lineNum, record)
				}
			}
		}

		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read line %d: %w", lineNum+1, readErr)
		}
	}
}

// decodeObject decodes a single JSON object, keeping numbers as json.Number
func decodeObject(line []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}

	record, ok := value.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return record, nil
}

// openInput opens a required input file, mapping a missing file to model.InputError
func openInput(role, path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, model.NewInputError(role, path, err)
	}
	return file, nil
}
