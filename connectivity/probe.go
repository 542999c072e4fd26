package connectivity

import (
	"context"
	"fmt"
	"net/http"
)

// Probe answers whether the remote system is reachable. A nil error means
// reachable; any error means not.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Context: Check must honor ctx cancellation and deadlines.
type Probe interface {
	// Name identifies this probe in logs.
	Name() string

	// Check performs one reachability test.
	Check(ctx context.Context) error
}

// ProbeFunc adapts an ordinary function to the Probe interface.
type ProbeFunc struct {
	name string
	fn   func(context.Context) error
}

// NewProbeFunc creates a ProbeFunc.
func NewProbeFunc(name string, fn func(context.Context) error) *ProbeFunc {
	return &ProbeFunc{name: name, fn: fn}
}

// Name identifies this probe.
func (p *ProbeFunc) Name() string { return p.name }

// Check performs one reachability test.
func (p *ProbeFunc) Check(ctx context.Context) error { return p.fn(ctx) }

// HTTPProbe tests reachability with a HEAD request. The remote counts as
// reachable when the request completes with a status below 500; client
// errors still prove the network path works.
type HTTPProbe struct {
	url    string
	client *http.Client
}

// NewHTTPProbe creates an HTTPProbe against url using http.DefaultClient.
func NewHTTPProbe(url string) *HTTPProbe {
	return &HTTPProbe{url: url, client: http.DefaultClient}
}

// WithClient sets the HTTP client used for probing.
func (p *HTTPProbe) WithClient(client *http.Client) *HTTPProbe {
	p.client = client
	return p
}

// Name identifies this probe.
func (p *HTTPProbe) Name() string { return "http:" + p.url }

// Check performs one HEAD request.
func (p *HTTPProbe) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return fmt.Errorf("connectivity: build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}
	return nil
}

var (
	_ Probe = (*ProbeFunc)(nil)
	_ Probe = (*HTTPProbe)(nil)
)
