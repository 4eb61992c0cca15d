package journal

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAppendsJSONLines(t *testing.T) {
	dir := t.TempDir()
	j := New(dir)

	j.RecordSync("acc1", "pronote", "homework", 12, nil)
	j.RecordSync("acc1", "pronote", "grades", 0, errors.New("portal down"))

	path := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".jsonl")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := splitLines(data)
	require.Len(t, lines, 2)

	var first, second Event
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))

	assert.Equal(t, "homework", first.Operation)
	assert.Equal(t, 12, first.Count)
	assert.Empty(t, first.Error)
	assert.False(t, first.Timestamp.IsZero())

	assert.Equal(t, "grades", second.Operation)
	assert.Equal(t, "portal down", second.Error)
}

func TestSweepRemovesOldFiles(t *testing.T) {
	dir := t.TempDir()
	j := New(dir)

	old := time.Now().UTC().AddDate(0, 0, -40)
	j.Record(Event{AccountID: "acc1", Operation: "refresh", Timestamp: old})
	j.Record(Event{AccountID: "acc1", Operation: "refresh"})

	removed, err := j.Sweep(30)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02")+".jsonl", entries[0].Name())
}

func TestSweepMissingDirIsNoop(t *testing.T) {
	j := New(filepath.Join(t.TempDir(), "never-created"))
	removed, err := j.Sweep(30)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSweepZeroRetentionIsNoop(t *testing.T) {
	dir := t.TempDir()
	j := New(dir)
	j.Record(Event{AccountID: "acc1", Operation: "refresh", Timestamp: time.Now().AddDate(0, 0, -100)})

	removed, err := j.Sweep(0)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	return lines
}
