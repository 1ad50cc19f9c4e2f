package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"github.com/GabrielRw/openapi-inspect/internal/document"
	"github.com/GabrielRw/openapi-inspect/internal/types"
)

// DefaultTimeout bounds the whole GET, body included.
const DefaultTimeout = 10 * time.Second

// Report is the outcome of one inspection.
type Report struct {
	URL string
	// StatusCode is zero when no response was received.
	StatusCode int
	Paths      []types.PathItem
	// Err is the failure that ended the inspection, if any. Paths holds
	// whatever was listed before it.
	Err error
}

// Failed reports whether the server answered with a status other than 200.
func (r *Report) Failed() bool {
	return r.Err == nil && r.StatusCode != http.StatusOK
}

// OK reports whether the inspection listed the whole document.
func (r *Report) OK() bool {
	return r.Err == nil && r.StatusCode == http.StatusOK
}

// Header returns the line printed before the request is made.
func (r *Report) Header() string {
	return fmt.Sprintf("--- Inspecting %s ---\n", r.URL)
}

// Body renders everything after the header.
func (r *Report) Body() string {
	var b strings.Builder
	if r.Failed() {
		fmt.Fprintf(&b, "Failed: %d\n", r.StatusCode)
		return b.String()
	}

	for _, item := range r.Paths {
		fmt.Fprintf(&b, "Path: %s\n", item.Path)
		for _, op := range item.Operations {
			fmt.Fprintf(&b, "  %s params:\n", op.Method)
			for _, param := range op.Parameters {
				fmt.Fprintf(&b, "    - %s (%s)\n", param.Name, param.In)
			}
		}
	}
	if r.Err != nil {
		fmt.Fprintf(&b, "Error: %v\n", r.Err)
	}
	return b.String()
}

func (r *Report) String() string {
	return r.Header() + r.Body()
}

// Inspector fetches OpenAPI documents and lists their parameters.
type Inspector struct {
	client   *http.Client
	out      io.Writer
	logger   log.Interface
	describe bool
}

// InspectorOption configures an Inspector.
type InspectorOption func(*Inspector)

// WithHTTPClient replaces the default client. Its Timeout is used as is.
// A nil client keeps the current one.
func WithHTTPClient(client *http.Client) InspectorOption {
	return func(i *Inspector) {
		if client != nil {
			i.client = client
		}
	}
}

// WithTimeout sets the request timeout of the default client.
func WithTimeout(timeout time.Duration) InspectorOption {
	return func(i *Inspector) {
		i.client = &http.Client{Timeout: timeout}
	}
}

// WithOutput sets where Inspect writes its listing.
func WithOutput(w io.Writer) InspectorOption {
	return func(i *Inspector) {
		i.out = w
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger log.Interface) InspectorOption {
	return func(i *Inspector) {
		i.logger = logger
	}
}

// WithDescribe makes each inspection also build a typed libopenapi model of
// the document and log its summary.
func WithDescribe(enabled bool) InspectorOption {
	return func(i *Inspector) {
		i.describe = enabled
	}
}

// NewInspector creates an Inspector writing to standard output with a
// DefaultTimeout client.
func NewInspector(opts ...InspectorOption) *Inspector {
	i := &Inspector{
		client: &http.Client{Timeout: DefaultTimeout},
		out:    os.Stdout,
		logger: log.Log,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Inspect writes the listing for rawURL to the inspector's output. Failures
// are part of the listing; nothing is returned.
func (i *Inspector) Inspect(ctx context.Context, rawURL string) {
	report := &Report{URL: rawURL}
	i.write(report.Header())

	i.run(ctx, report)
	i.write(report.Body())
}

// Run performs an inspection without writing it.
func (i *Inspector) Run(ctx context.Context, rawURL string) *Report {
	report := &Report{URL: rawURL}
	i.run(ctx, report)
	return report
}

func (i *Inspector) run(ctx context.Context, report *Report) {
	logger := i.logger.WithFields(log.Fields{
		"url": report.URL,
		"run": uuid.NewString(),
	})

	start := time.Now()
	status, body, err := i.fetch(ctx, report.URL)
	report.StatusCode = status
	if err != nil {
		report.Err = err
		logger.WithError(err).Debug("fetch failed")
		return
	}

	logger = logger.WithFields(log.Fields{
		"status":   status,
		"bytes":    len(body),
		"duration": time.Since(start).Round(time.Millisecond).String(),
	})
	if status != http.StatusOK {
		logger.Debug("unexpected status")
		return
	}
	logger.Debug("fetched openapi document")

	if i.describe {
		describe(logger, body)
	}

	report.Paths, report.Err = document.Walk(body)
	if report.Err != nil {
		logger.WithError(report.Err).Debug("walk failed")
		return
	}
	logger.WithField("paths", len(report.Paths)).Debug("listed paths")
}

// fetch returns the status and, for 200 responses only, the body.
func (i *Inspector) fetch(ctx context.Context, rawURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch openapi document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read openapi document: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (i *Inspector) write(s string) {
	if _, err := io.WriteString(i.out, s); err != nil {
		i.logger.WithError(err).Warn("write listing")
	}
}
