package extract

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/sourcecheck/internal/logging"
	"github.com/ppiankov/sourcecheck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSONL(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func TestEntityExtractor_FileLocation(t *testing.T) {
	extractor := NewEntityExtractor(nil)

	index, err := extractor.Extract(strings.NewReader(
		`{"ENTITIES_TO_USE":[{"type":"File","FileLocation":"/a/b.txt","FileName":"b.txt"}]}`,
	), "ctx.jsonl")
	require.NoError(t, err)

	info, ok := index.Get("/a/b.txt")
	require.True(t, ok)
	assert.Equal(t, model.EntityInfo{
		Type:     "File",
		IDField:  "FileLocation",
		Line:     1,
		FileName: "b.txt",
	}, info)

	// FileLocation paths are grouped under their own bucket
	assert.Equal(t, map[string]int{"FilePath": 1}, index.TypeCounts())
}

func TestEntityExtractor_AllIDFields(t *testing.T) {
	extractor := NewEntityExtractor(nil)

	line := `{"ENTITIES_TO_USE":[` +
		`{"type":"Event","EventId":"ev1"},` +
		`{"type":"File","FileId":"f1"},` +
		`{"type":"ChatMessage","ChatMessageId":"cm1"},` +
		`{"type":"Meeting","OnlineMeetingId":"m1"},` +
		`{"type":"Email","EmailId":"e1"},` +
		`{"type":"ChannelMessage","ChannelMessageId":"ch1"},` +
		`{"type":"Chat","ChatId":"c1"}]}`

	index, err := extractor.Extract(strings.NewReader(line), "ctx.jsonl")
	require.NoError(t, err)

	expected := map[string][2]string{
		"ev1": {"Event", "EventId"},
		"f1":  {"File", "FileId"},
		"cm1": {"ChatMessage", "ChatMessageId"},
		"m1":  {"Meeting", "OnlineMeetingId"},
		"e1":  {"Email", "EmailId"},
		"ch1": {"ChannelMessage", "ChannelMessageId"},
		"c1":  {"Chat", "ChatId"},
	}
	for id, want := range expected {
		info, ok := index.Get(id)
		if assert.True(t, ok, "missing %s", id) {
			assert.Equal(t, want[0], info.Type, id)
			assert.Equal(t, want[1], info.IDField, id)
		}
	}
	assert.Equal(t, []string{"ev1", "f1", "cm1", "m1", "e1", "ch1", "c1"}, index.Keys())
}

func TestEntityExtractor_UserAndNestedMessages(t *testing.T) {
	extractor := NewEntityExtractor(nil)

	lines := strings.Join([]string{
		`{"ENTITIES_TO_USE":[{"type":"User","MailNickName":"jdoe","DisplayName":"J. Doe"}]}`,
		`{"ENTITIES_TO_USE":[{"type":"Chat","ChatId":"c1","ChatMessages":[{"ChatMessageId":"m1"},{"Body":"no id"},"junk"]}]}`,
	}, "\n")

	index, err := extractor.Extract(strings.NewReader(lines), "ctx.jsonl")
	require.NoError(t, err)

	user, ok := index.Get("jdoe")
	require.True(t, ok)
	assert.Equal(t, "User", user.Type)
	assert.Equal(t, "MailNickName", user.IDField)
	assert.Equal(t, "J. Doe", user.DisplayName)
	assert.Equal(t, 1, user.Line)

	msg, ok := index.Get("m1")
	require.True(t, ok)
	assert.Equal(t, model.EntityInfo{Type: "ChatMessage", IDField: "ChatMessageId", Line: 2}, msg)

	assert.Equal(t, 3, index.Len())
	assert.Equal(t, []string{"User", "Chat", "ChatMessage"}, index.Types())
}

func TestEntityExtractor_UserRulesOnlyApplyToDeclaredType(t *testing.T) {
	extractor := NewEntityExtractor(nil)

	index, err := extractor.Extract(strings.NewReader(
		`{"ENTITIES_TO_USE":[{"type":"Contact","MailNickName":"nick","FileLocation":"/x"}]}`,
	), "ctx.jsonl")
	require.NoError(t, err)

	assert.False(t, index.Has("nick"))
	assert.False(t, index.Has("/x"))
}

func TestEntityExtractor_MalformedLinesAreSkipped(t *testing.T) {
	log := &bytes.Buffer{}
	logger := logging.New(log, "warn", "json")
	extractor := NewEntityExtractor(&logger)

	lines := strings.Join([]string{
		`{"ENTITIES_TO_USE":[{"type":"Event","EventId":"ev1"}]}`,
		`{not json`,
		``,
		`   `,
		`[1,2,3]`,
		`{"ENTITIES_TO_USE":[{"type":"Event","EventId":"ev2"}]}`,
	}, "\n")

	index, err := extractor.Extract(strings.NewReader(lines), "ctx.jsonl")
	require.NoError(t, err)

	assert.Equal(t, 2, index.Errors)
	assert.Equal(t, []string{"ev1", "ev2"}, index.Keys())

	info, _ := index.Get("ev2")
	assert.Equal(t, 6, info.Line, "blank lines still count towards line numbers")
	assert.Contains(t, log.String(), `"line":2`)
	assert.Contains(t, log.String(), `"line":5`)
}

func TestEntityExtractor_MissingEntitiesAndDefaults(t *testing.T) {
	extractor := NewEntityExtractor(nil)

	lines := strings.Join([]string{
		`{"other":true}`,
		`{"ENTITIES_TO_USE":[{"EventId":"ev1"},{"type":"Event","EventId":""},{"type":"Event","EventId":42}]}`,
	}, "\n")

	index, err := extractor.Extract(strings.NewReader(lines), "ctx.jsonl")
	require.NoError(t, err)

	info, ok := index.Get("ev1")
	require.True(t, ok)
	assert.Equal(t, "Unknown", info.Type)

	assert.False(t, index.Has(""), "empty identifiers are not indexed")
	assert.True(t, index.Has("42"), "numeric identifiers keep their literal text")
}

func TestEntityExtractor_LastWriteWins(t *testing.T) {
	extractor := NewEntityExtractor(nil)

	lines := strings.Join([]string{
		`{"ENTITIES_TO_USE":[{"type":"Event","EventId":"dup"},{"type":"Event","EventId":"other"}]}`,
		`{"ENTITIES_TO_USE":[{"type":"Email","EmailId":"dup"}]}`,
	}, "\n")

	index, err := extractor.Extract(strings.NewReader(lines), "ctx.jsonl")
	require.NoError(t, err)

	info, _ := index.Get("dup")
	assert.Equal(t, model.EntityInfo{Type: "Email", IDField: "EmailId", Line: 2}, info)
	assert.Equal(t, 1, index.Collisions)
	assert.Equal(t, []string{"dup", "other"}, index.Keys(), "overwrite keeps first position")

	// The identifier is counted under both declared types
	assert.Equal(t, map[string]int{"Event": 2, "Email": 1}, index.TypeCounts())
}

func TestEntityExtractor_Idempotent(t *testing.T) {
	path := writeJSONL(t,
		`{"ENTITIES_TO_USE":[{"type":"User","MailNickName":"a","DisplayName":"A"},{"type":"File","FileId":"f","FileLocation":"/f"}]}`,
		`{"ENTITIES_TO_USE":[{"type":"Chat","ChatMessages":[{"ChatMessageId":"m"}]}]}`,
	)
	extractor := NewEntityExtractor(nil)

	first, err := extractor.ExtractFile(path)
	require.NoError(t, err)
	second, err := extractor.ExtractFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"a", "f", "/f", "m"}, first.Keys())
}

func TestEntityExtractor_MissingFile(t *testing.T) {
	extractor := NewEntityExtractor(nil)

	_, err := extractor.ExtractFile(filepath.Join(t.TempDir(), "nope.jsonl"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInputNotFound))

	var inputErr *model.InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, "context", inputErr.Role)
}
