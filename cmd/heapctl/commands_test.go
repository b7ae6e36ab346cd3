package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/format"
)

// putText stores text in the heap at path and returns the printed root.
func putText(t *testing.T, path string, texts ...string) string {
	t.Helper()
	out, err := captureOutput(t, func() error {
		return runPut(append([]string{path}, texts...))
	})
	require.NoError(t, err)
	return strings.TrimSpace(out)
}

func TestInitCommand(t *testing.T) {
	resetFlags(t)
	path := testHeapPath(t)

	out, err := captureOutput(t, func() error { return runInit([]string{path}) })
	require.NoError(t, err)
	assertContains(t, out, []string{"Created", "4096 bytes"})

	_, err = captureOutput(t, func() error { return runInit([]string{path}) })
	require.Error(t, err, "existing file needs --force")

	initForce = true
	_, err = captureOutput(t, func() error { return runInit([]string{path}) })
	require.NoError(t, err)
}

func TestPutCatCommand(t *testing.T) {
	tests := []struct {
		name        string
		texts       []string
		list        bool
		wantErr     bool
		wantContain []string
	}{
		{
			name:        "single string",
			texts:       []string{"hello world"},
			wantContain: []string{"hello world"},
		},
		{
			name:        "empty string",
			texts:       []string{""},
			wantContain: []string{},
		},
		{
			name:        "long string spans buffers",
			texts:       []string{strings.Repeat("abcdefgh", 200)},
			wantContain: []string{strings.Repeat("abcdefgh", 200)},
		},
		{
			name:        "list of strings",
			texts:       []string{"alpha", "beta", "gamma"},
			list:        true,
			wantContain: []string{`"alpha"`, `"beta"`, `"gamma"`},
		},
		{
			name:    "several texts without list",
			texts:   []string{"a", "b"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			path := testHeapPath(t)
			putList = tt.list

			out, err := captureOutput(t, func() error {
				return runPut(append([]string{path}, tt.texts...))
			})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			root := strings.TrimSpace(out)
			require.True(t, strings.HasPrefix(root, "0x"), "root %q", root)

			out, err = captureOutput(t, func() error { return runCat([]string{path, root}) })
			require.NoError(t, err)
			assertContains(t, out, tt.wantContain)
		})
	}
}

func TestCatCommand_JSON(t *testing.T) {
	resetFlags(t)
	path := testHeapPath(t)
	putList = true
	root := putText(t, path, "one", "two")
	putList = false

	jsonOut = true
	out, err := captureOutput(t, func() error { return runCat([]string{path, root}) })
	require.NoError(t, err)
	assertJSON(t, out)

	var got []string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"one", "two"}, got)
}

func TestCatCommand_Errors(t *testing.T) {
	resetFlags(t)
	path := testHeapPath(t)
	putText(t, path, "x")

	_, err := captureOutput(t, func() error { return runCat([]string{path, "nope"}) })
	require.Error(t, err)

	_, err = captureOutput(t, func() error { return runCat([]string{path, "0x10"}) })
	require.Error(t, err, "address inside the storage header")

	missing := testHeapPath(t)
	_, err = captureOutput(t, func() error { return runCat([]string{missing, "0x3F6"}) })
	require.Error(t, err, "read-only open of a missing file")
}

func TestInfoCommand(t *testing.T) {
	resetFlags(t)
	path := testHeapPath(t)
	putText(t, path, "hello")

	out, err := captureOutput(t, func() error { return runInfo([]string{path}) })
	require.NoError(t, err)
	assertContains(t, out, []string{"Storage:", "Used:", "Trailing:", "string-root", "string-node", "string-content"})

	jsonOut = true
	out, err = captureOutput(t, func() error { return runInfo([]string{path}) })
	require.NoError(t, err)
	assertJSON(t, out)

	var info infoJSON
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, 3, info.UsedSpans)
	assert.Equal(t, 1, info.AllocTypes["string-root"])
	assert.Equal(t, int64(4096), info.Storage)
}

func TestSpansCommand(t *testing.T) {
	resetFlags(t)
	path := testHeapPath(t)
	root := putText(t, path, "hello")

	out, err := captureOutput(t, func() error { return runSpans([]string{path}) })
	require.NoError(t, err)
	assertContains(t, out, []string{"ADDR", root, "used", "trailing", "string-root"})

	// Freeing leaves free spans behind the next alloc.
	keep := putText(t, path, "keep")
	_, err = captureOutput(t, func() error { return runRm([]string{path, root}) })
	require.NoError(t, err)

	spansFree = true
	jsonOut = true
	out, err = captureOutput(t, func() error { return runSpans([]string{path}) })
	require.NoError(t, err)
	var spans []spanJSON
	require.NoError(t, json.Unmarshal([]byte(out), &spans))
	require.NotEmpty(t, spans)
	for _, s := range spans {
		assert.Equal(t, "free", s.State)
		assert.NotEqual(t, keep, s.Addr)
	}
}

func TestVerifyCommand(t *testing.T) {
	resetFlags(t)
	path := testHeapPath(t)
	putText(t, path, "a string")
	putList = true
	putText(t, path, "x", "y", "z")
	putList = false

	out, err := captureOutput(t, func() error { return runVerify([]string{path}) })
	require.NoError(t, err)
	assertContains(t, out, []string{"ok", "(5 trees)"})

	jsonOut = true
	out, err = captureOutput(t, func() error { return runVerify([]string{path}) })
	require.NoError(t, err)
	var res verifyJSON
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Valid)
	assert.Equal(t, 5, res.Trees)
}

func TestVerifyCommand_DetectsCorruption(t *testing.T) {
	resetFlags(t)
	path := testHeapPath(t)
	putText(t, path, "hello")

	// Clear the size field of the first span header.
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	off := int64(format.PreambleSize + format.StorageHeaderSize + format.SpanSizeOffset)
	_, err = f.WriteAt([]byte{0, 0, 0, 0}, off)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = captureOutput(t, func() error { return runVerify([]string{path}) })
	require.Error(t, err)
}

func TestRmCommand(t *testing.T) {
	resetFlags(t)
	path := testHeapPath(t)
	putList = true
	root := putText(t, path, "x", "y")
	putList = false

	out, err := captureOutput(t, func() error { return runRm([]string{path, root}) })
	require.NoError(t, err)
	assertContains(t, out, []string{"Freed 1 roots"})

	jsonOut = true
	out, err = captureOutput(t, func() error { return runInfo([]string{path}) })
	require.NoError(t, err)
	var info infoJSON
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Zero(t, info.UsedSpans, "list and its strings are freed")

	jsonOut = false
	_, err = captureOutput(t, func() error { return runRm([]string{path, root}) })
	require.Error(t, err, "double free")
}

func TestPutCommand_Input(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		charset string
		list    bool
		want    []string
		wantErr bool
	}{
		{
			name: "utf-8 whole file",
			data: []byte("line one\nline two\n"),
			want: []string{"\"line one\\nline two\\n\""},
		},
		{
			name:    "windows-1252 lines",
			data:    []byte("caf\xe9\r\nna\xefve\r\n"),
			charset: "windows-1252",
			list:    true,
			want:    []string{`"café"`, `"naïve"`},
		},
		{
			name:    "utf-16le with BOM",
			data:    []byte{0xFF, 0xFE, 'h', 0, 'i', 0},
			charset: "utf-16le",
			want:    []string{`"hi"`},
		},
		{
			name:    "unknown charset",
			data:    []byte("x"),
			charset: "ebcdic",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			path := testHeapPath(t)
			input := filepath.Join(t.TempDir(), "input.txt")
			require.NoError(t, os.WriteFile(input, tt.data, 0o644))

			putFile, putList = input, tt.list
			if tt.charset != "" {
				putCharset = tt.charset
			}
			out, err := captureOutput(t, func() error { return runPut([]string{path}) })
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			root := strings.TrimSpace(out)

			jsonOut = true
			out, err = captureOutput(t, func() error { return runCat([]string{path, root}) })
			require.NoError(t, err)
			assertContains(t, out, tt.want)
		})
	}
}
