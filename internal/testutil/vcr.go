// Package testutil holds shared test helpers.
package testutil

import (
	"net/http"
	"path/filepath"
	"testing"

	"gopkg.in/dnaeon/go-vcr.v2/cassette"
	"gopkg.in/dnaeon/go-vcr.v2/recorder"
)

// NewRecorder creates a VCR recorder in recording mode, writing its
// cassette under dir. Tests point it at a local httptest server so webhook
// interactions are captured for inspection. The caller stops the recorder
// to flush the cassette.
func NewRecorder(t *testing.T, dir, cassetteName string) *recorder.Recorder {
	t.Helper()

	r, err := recorder.NewAsMode(filepath.Join(dir, cassetteName), recorder.ModeRecording, nil)
	if err != nil {
		t.Fatalf("create recorder: %v", err)
	}

	r.SetMatcher(func(req *http.Request, i cassette.Request) bool {
		return req.Method == i.Method && req.URL.String() == i.URL
	})

	return r
}
