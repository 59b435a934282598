// Package gateway talks to the remote BlogMe backend.
//
// Every call runs under its own timeout and is attempted once. A timeout, a
// transport error, a non-2xx status and an undecodable body all come back
// as ErrUnavailable so callers can fall back to local state with a single
// errors.Is check. Login and register additionally report ErrRejected when
// the backend answered and said no.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/akinalp/blogme/pkg"
)

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 10 << 20

var (
	// ErrUnavailable wraps pkg.ErrUnavailable so handlers map it to 503.
	ErrUnavailable = fmt.Errorf("remote %w", pkg.ErrUnavailable)

	// ErrRejected means the backend answered with a client error.
	ErrRejected = errors.New("rejected by remote")
)

// RejectedError carries the backend's own message ("msg") when it has one.
type RejectedError struct {
	Status int
	Msg    string
}

func (e *RejectedError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("rejected by remote (status %d)", e.Status)
	}
	return fmt.Sprintf("rejected by remote (status %d): %s", e.Status, e.Msg)
}

func (e *RejectedError) Is(target error) bool { return target == ErrRejected }

// Outcome label values of blogme_gateway_requests_total.
const (
	outcomeOK       = "ok"
	outcomeTimeout  = "timeout"
	outcomeError    = "error"
	outcomeStatus   = "status"
	outcomeDecode   = "decode"
	outcomeRejected = "rejected"
)

// request describes one remote call.
type request struct {
	// op names the call in logs and in the op metric label ("list",
	// "create", "register", ...).
	op     string
	method string
	// path is appended to the base URL as is; callers escape ids.
	path string
	// timeout bounds the whole call, body read included.
	timeout     time.Duration
	body        io.Reader
	contentType string
	// rejectOn4xx turns 4xx answers into a RejectedError instead of
	// ErrUnavailable.
	rejectOn4xx bool
}

// client is the transport shared by the post and account gateways.
//
// It holds no per-call state and is safe for concurrent use. The
// *http.Client is shared so connections to the backend are pooled
// across both gateways.
type client struct {
	baseURL string
	httpc   *http.Client
	metrics *Metrics
}

func newClient(baseURL string, httpc *http.Client, metrics *Metrics) *client {
	if httpc == nil {
		httpc = &http.Client{}
	}
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
		metrics: metrics,
	}
}

// do runs req and hands a 2xx body to decode (which may be nil). The
// outcome is recorded once per call.
//
// Result mapping:
//   - transport error or timeout: ErrUnavailable (outcome error/timeout)
//   - 4xx with rejectOn4xx: *RejectedError with the backend's msg
//   - any other non-2xx: ErrUnavailable (outcome status)
//   - 2xx the decoder rejects: ErrUnavailable (outcome decode)
//
// The request context is derived from ctx, so a cancelled request also
// cancels the remote call.
func (c *client) do(ctx context.Context, req request, decode func([]byte) error) error {
	start := time.Now()
	outcome := outcomeOK
	defer func() { c.metrics.observe(req.op, outcome, time.Since(start)) }()

	ctx, cancel := context.WithTimeout(ctx, req.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, req.body)
	if err != nil {
		outcome = outcomeError
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, req.op, err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		outcome = outcomeError
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = outcomeTimeout
		}
		log.Printf("[gateway] %s failed: %v", req.op, err)
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, req.op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		outcome = outcomeError
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = outcomeTimeout
		}
		log.Printf("[gateway] %s read failed: %v", req.op, err)
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, req.op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if req.rejectOn4xx && resp.StatusCode >= 400 && resp.StatusCode < 500 {
			outcome = outcomeRejected
			return &RejectedError{Status: resp.StatusCode, Msg: remoteMessage(body)}
		}
		outcome = outcomeStatus
		log.Printf("[gateway] %s returned status %d", req.op, resp.StatusCode)
		return fmt.Errorf("%w: %s: status %d", ErrUnavailable, req.op, resp.StatusCode)
	}

	if decode == nil {
		return nil
	}
	if err := decode(body); err != nil {
		outcome = outcomeDecode
		log.Printf("[gateway] %s response not understood: %v", req.op, err)
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, req.op, err)
	}
	return nil
}

// jsonBody encodes v for a request body.
func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// remoteMessage pulls {"msg": "..."} out of an error body.
func remoteMessage(body []byte) string {
	var out struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return ""
	}
	return out.Msg
}
