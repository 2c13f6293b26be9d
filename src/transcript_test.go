package yapper

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Transcript_SingleFile(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "chat.csv")

	var tr, err = TranscriptOpen(path, false, "%Y-%m-%dT%H:%M:%S")
	require.NoError(t, err)

	var when = time.Date(2026, 8, 28, 12, 34, 56, 0, time.UTC)
	tr.Record(Message{ID: "AB12", Text: "HI", Direction: DirInbound, Timestamp: when}, "audible")
	tr.Record(Message{ID: "CD34", Text: "HO", Direction: DirOutbound, Timestamp: when.Add(time.Minute)}, "audible")
	tr.Close()

	var f, openErr = os.Open(path)
	require.NoError(t, openErr)
	defer f.Close()

	var records, readErr = csv.NewReader(f).ReadAll()
	require.NoError(t, readErr)
	require.Len(t, records, 3, "header plus two messages")

	assert.Equal(t, strings.Split(transcriptHeader, ","), records[0])

	assert.Equal(t, "2026-08-28T12:34:56", records[1][1])
	assert.Equal(t, "inbound", records[1][2])
	assert.Equal(t, "AB12", records[1][3])
	assert.Equal(t, "audible", records[1][4])
	assert.Equal(t, "HI", records[1][5])

	assert.Equal(t, "outbound", records[2][2])
	assert.Equal(t, "HO", records[2][5])
}

func Test_Transcript_AppendKeepsOneHeader(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "chat.csv")
	var when = time.Now()

	for i := 0; i < 2; i++ {
		var tr, err = TranscriptOpen(path, false, "%H:%M:%S")
		require.NoError(t, err)
		tr.Record(Message{ID: "AB12", Text: "HI", Direction: DirInbound, Timestamp: when}, "audible")
		tr.Close()
	}

	var data, readErr = os.ReadFile(path)
	require.NoError(t, readErr)

	assert.Equal(t, 1, strings.Count(string(data), transcriptHeader))
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 3)
}

func Test_Transcript_DailyNames(t *testing.T) {
	var dir = filepath.Join(t.TempDir(), "logs")

	var tr, err = TranscriptOpen(dir, true, "%H:%M:%S")
	require.NoError(t, err, "missing directory is created")

	var when = time.Date(2026, 8, 28, 23, 59, 0, 0, time.UTC)
	tr.Record(Message{ID: "AB12", Text: "HI", Direction: DirInbound, Timestamp: when}, "audible")
	tr.Record(Message{ID: "CD34", Text: "HO", Direction: DirInbound, Timestamp: when.Add(2 * time.Minute)}, "audible")
	tr.Close()

	_, err = os.Stat(filepath.Join(dir, "2026-08-28.csv"))
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "2026-08-29.csv"))
	assert.NoError(t, err, "file rolls when the date changes")
}

func Test_Transcript_DailyRejectsFile(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "notadir")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	var _, err = TranscriptOpen(path, true, "%H:%M:%S")
	assert.Error(t, err)
}

func Test_Transcript_NilSafe(t *testing.T) {
	var tr *Transcript

	// A disabled transcript is a nil pointer; both methods must cope.
	tr.Record(Message{ID: "AB12"}, "audible")
	tr.Close()
}
