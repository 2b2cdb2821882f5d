package telemetry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/errorsx"
)

// controlClient posts start/stop requests to the tracker supervisor.
type controlClient struct {
	base    string
	timeout time.Duration
	http    *http.Client
}

func newControlClient(base string, timeout time.Duration, hc *http.Client) *controlClient {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if hc == nil {
		hc = &http.Client{}
	}
	return &controlClient{base: base, timeout: timeout, http: hc}
}

func (c *controlClient) post(ctx context.Context, path string) error {
	if c == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, nil)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTelemetryControl)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTelemetryControl)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return errorsx.Errorf(errorsx.ReasonTelemetryControl, "tracker control %s returned %d", path, resp.StatusCode)
	}
	return nil
}

func (c *controlClient) String() string {
	if c == nil {
		return "disabled"
	}
	return fmt.Sprintf("%s (timeout %s)", c.base, c.timeout)
}
