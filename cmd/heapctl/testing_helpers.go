package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

// testHeapPath returns a path for a fresh heap file in a temp directory
func testHeapPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.heap")
}

// captureOutput captures command output while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	orig := stdout
	var buf bytes.Buffer
	stdout = &buf
	defer func() { stdout = orig }()

	err := fn()
	return buf.String(), err
}

// resetFlags restores every global flag to its default
func resetFlags(t *testing.T) {
	t.Helper()
	verbose, quiet, jsonOut, logFile = false, false, false, ""
	initForce, spansFree, putList, rmTrim = false, false, false, false
	putFile, putCharset = "", "utf-8"
	t.Cleanup(func() {
		verbose, quiet, jsonOut, logFile = false, false, false, ""
		initForce, spansFree, putList, rmTrim = false, false, false, false
		putFile, putCharset = "", "utf-8"
	})
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	var result any
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}
