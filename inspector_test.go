package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	"github.com/google/go-cmp/cmp"

	"github.com/GabrielRw/openapi-inspect/internal/document"
)

var quietLogger = &log.Logger{Handler: discard.Default, Level: log.DebugLevel}

func newTestServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func inspectLines(t *testing.T, url string, opts ...InspectorOption) []string {
	t.Helper()
	var out bytes.Buffer
	opts = append([]InspectorOption{WithOutput(&out), WithLogger(quietLogger)}, opts...)
	NewInspector(opts...).Inspect(context.Background(), url)
	return strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
}

func TestInspectExample(t *testing.T) {
	server := newTestServer(t, http.StatusOK,
		`{"paths": {"/users": {"get": {"parameters": [{"name": "id", "in": "query"}]}}}}`)

	got := inspectLines(t, server.URL)
	expected := []string{
		"--- Inspecting " + server.URL + " ---",
		"Path: /users",
		"  GET params:",
		"    - id (query)",
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Unexpected output (-want +got):\n%s", diff)
	}
}

func TestInspectKeepsDocumentOrder(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{
		"openapi": "3.0.3",
		"paths": {
			"/horoscope/{sign}": {
				"post": {"parameters": [
					{"name": "sign", "in": "path"},
					{"name": "date", "in": "query"},
					{"in": "header"}
				]},
				"get": {}
			},
			"/geo": {"get": {"parameters": [{"name": "q"}]}},
			"/health": {}
		}
	}`)

	got := inspectLines(t, server.URL)
	expected := []string{
		"--- Inspecting " + server.URL + " ---",
		"Path: /horoscope/{sign}",
		"  POST params:",
		"    - sign (path)",
		"    - date (query)",
		"    - " + document.MissingValue + " (header)",
		"  GET params:",
		"Path: /geo",
		"  GET params:",
		"    - q (" + document.MissingValue + ")",
		"Path: /health",
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Unexpected output (-want +got):\n%s", diff)
	}
}

func TestInspectNon200(t *testing.T) {
	server := newTestServer(t, http.StatusNotFound, `{"paths": {"/users": {}}}`)

	got := inspectLines(t, server.URL)
	expected := []string{
		"--- Inspecting " + server.URL + " ---",
		"Failed: 404",
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Unexpected output (-want +got):\n%s", diff)
	}
}

func TestInspectRedirectIsFollowed(t *testing.T) {
	target := newTestServer(t, http.StatusOK, `{"paths": {"/a": {}}}`)
	redirect := httptest.NewServer(http.RedirectHandler(target.URL, http.StatusFound))
	defer redirect.Close()

	got := inspectLines(t, redirect.URL)
	expected := []string{
		"--- Inspecting " + redirect.URL + " ---",
		"Path: /a",
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Unexpected output (-want +got):\n%s", diff)
	}
}

func TestInspectConnectionRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	url := "http://" + listener.Addr().String() + "/openapi.json"
	listener.Close()

	got := inspectLines(t, url)
	if len(got) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %q", len(got), got)
	}
	if got[0] != "--- Inspecting "+url+" ---" {
		t.Errorf("Unexpected header %q", got[0])
	}
	if !strings.HasPrefix(got[1], "Error: ") {
		t.Errorf("Expected error line, got %q", got[1])
	}
}

func TestInspectTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	got := inspectLines(t, server.URL, WithTimeout(50*time.Millisecond))
	if len(got) != 2 || !strings.HasPrefix(got[1], "Error: ") {
		t.Errorf("Expected header and error line, got %q", got)
	}
}

func TestInspectInvalidJSON(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `<!doctype html><html></html>`)

	got := inspectLines(t, server.URL)
	if len(got) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %q", len(got), got)
	}
	if !strings.HasPrefix(got[1], "Error: decode document: ") {
		t.Errorf("Expected decode error line, got %q", got[1])
	}
}

func TestInspectNoPaths(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"openapi": "3.1.0", "info": {"title": "empty", "version": "1"}}`)

	got := inspectLines(t, server.URL, WithDescribe(true))
	expected := []string{"--- Inspecting " + server.URL + " ---"}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Unexpected output (-want +got):\n%s", diff)
	}
}

func TestInspectPartialOutputBeforeError(t *testing.T) {
	server := newTestServer(t, http.StatusOK,
		`{"paths": {"/a": {"get": {"parameters": [{"name": "id", "in": "path"}]}}, "/b": {"summary": "text", "get": {}}}}`)

	got := inspectLines(t, server.URL)
	expected := []string{
		"--- Inspecting " + server.URL + " ---",
		"Path: /a",
		"  GET params:",
		"    - id (path)",
		"Path: /b",
		"  SUMMARY params:",
		"Error: operation SUMMARY /b is a string: not a JSON object",
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Unexpected output (-want +got):\n%s", diff)
	}
}

func TestRunReport(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"paths": {"/a": {"get": {}}}}`)
	inspector := NewInspector(WithLogger(quietLogger))

	report := inspector.Run(context.Background(), server.URL)
	if !report.OK() {
		t.Fatalf("Expected OK report, got status %d err %v", report.StatusCode, report.Err)
	}
	if report.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", report.StatusCode)
	}
	if len(report.Paths) != 1 || report.Paths[0].Path != "/a" {
		t.Errorf("Unexpected paths %+v", report.Paths)
	}

	expected := "--- Inspecting " + server.URL + " ---\nPath: /a\n  GET params:\n"
	if report.String() != expected {
		t.Errorf("Expected %q, got %q", expected, report.String())
	}
}

func TestRunCancelledContext(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"paths": {}}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := NewInspector(WithLogger(quietLogger)).Run(ctx, server.URL)
	if !errors.Is(report.Err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", report.Err)
	}
	if report.Failed() {
		t.Error("Expected transport error, not a failed status")
	}
}

func TestInspectMalformedURL(t *testing.T) {
	got := inspectLines(t, "://no-scheme")
	if len(got) != 2 || !strings.HasPrefix(got[1], "Error: build request: ") {
		t.Errorf("Expected build request error, got %q", got)
	}
}

func TestWithHTTPClientNilKeepsDefault(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"paths": {"/a": {}}}`)

	inspector := NewInspector(WithTimeout(time.Second), WithHTTPClient(nil), WithLogger(quietLogger))
	if inspector.client == nil {
		t.Fatal("Expected a client")
	}
	if inspector.client.Timeout != time.Second {
		t.Errorf("Expected timeout 1s, got %s", inspector.client.Timeout)
	}

	report := inspector.Run(context.Background(), server.URL)
	if !report.OK() {
		t.Errorf("Expected OK report, got status %d err %v", report.StatusCode, report.Err)
	}
}
