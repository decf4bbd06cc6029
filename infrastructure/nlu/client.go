package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgError "github.com/emundo/emubot/pkg/error"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

const DefaultTimeout = 10 * time.Second

// Doer is the part of *fasthttp.Client the NLU clients use.
type Doer interface {
	DoTimeout(req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error
}

// httpClient sends JSON requests to NLU backends.
type httpClient struct {
	doer    Doer
	timeout time.Duration
}

func newHTTPClient(doer Doer, timeout time.Duration) httpClient {
	if doer == nil {
		doer = &fasthttp.Client{
			Name:                "emubot",
			MaxIdleConnDuration: time.Minute,
		}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return httpClient{doer: doer, timeout: timeout}
}

// timeoutFor shortens the configured timeout to the ctx deadline.
func (c httpClient) timeoutFor(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	return timeout, nil
}

// doJSON sends body as JSON and decodes a 2xx answer into out (when not nil).
func (c httpClient) doJSON(ctx context.Context, method, url, bearer string, body, out any) error {
	timeout, err := c.timeoutFor(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if bearer != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+bearer)
	}
	req.SetBodyRaw(payload)

	start := time.Now()
	if err := c.doer.DoTimeout(req, resp, timeout); err != nil {
		return pkgError.NluError(fmt.Sprintf("%s %s: %v", method, url, err))
	}
	logrus.Debugf("[NLU] %s %s -> %d (%s)", method, url, resp.StatusCode(), time.Since(start))

	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return pkgError.NluError(fmt.Sprintf("%s %s: unexpected status %d", method, url, code))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return pkgError.NluError(fmt.Sprintf("%s %s: invalid response: %v", method, url, err))
	}
	return nil
}
