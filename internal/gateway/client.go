// Package gateway is the sole point of contact with the remote PDB
// Engine service. It encodes requests (multipart when a structure file
// rides along, JSON otherwise), and turns responses into opaque result
// bytes plus out-of-band execution metadata.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/XRed8X/PDB-Engine/internal/command"
)

// Header names the engine uses to convey execution metadata out of
// band with the binary result.
const (
	HeaderExecutionTime = "X-Execution-Time"
	HeaderJobStatus     = "X-Job-Status"
)

// executePath is the engine's single execution endpoint.
const executePath = "/api/execute"

// Outcome is a successful engine response: the opaque result bytes and
// the metadata that rode alongside them. ExecutionSeconds comes from
// the engine when it reports one, otherwise from the client's own
// wall-clock measurement.
type Outcome struct {
	Data             []byte
	ExecutionSeconds float64
	JobStatus        string
}

// RemoteError is a failure the engine reported itself. Error returns
// the engine's message verbatim so callers can surface it unchanged.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string { return e.Message }

// Client talks to the engine service. Safe for concurrent use.
type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
	now  func() time.Time
}

// Options configure a Client; zero fields fall back to defaults.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
	Now        func() time.Time
}

// New builds a Client for the engine at opts.BaseURL.
func New(opts Options) *Client {
	c := &Client{
		base: strings.TrimRight(opts.BaseURL, "/"),
		http: opts.HTTPClient,
		log:  opts.Logger,
		now:  opts.Now,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Execute sends one command to the engine and returns its binary
// result. A file-bearing request goes out as multipart/form-data with
// the raw bytes under the file field; otherwise the same three logical
// pieces travel as a JSON body. Failures reported by the engine come
// back as *RemoteError carrying the engine's own message.
func (c *Client) Execute(ctx context.Context, req command.Request) (*Outcome, error) {
	start := c.now()

	var (
		body        io.Reader
		contentType string
		err         error
	)
	if req.File != nil {
		body, contentType, err = encodeMultipart(req)
	} else {
		body, contentType, err = encodeJSON(req)
	}
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+executePath, body)
	if err != nil {
		return nil, fmt.Errorf("build engine request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	c.log.Debug("executing command",
		zap.String("command", req.Command),
		zap.Bool("multipart", req.File != nil))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("engine request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read engine response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorMessage(data, resp.StatusCode)
		c.log.Warn("engine rejected command",
			zap.String("command", req.Command),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg))
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: msg}
	}

	out := &Outcome{
		Data:      data,
		JobStatus: resp.Header.Get(HeaderJobStatus),
	}
	if secs, perr := strconv.ParseFloat(resp.Header.Get(HeaderExecutionTime), 64); perr == nil && secs >= 0 {
		out.ExecutionSeconds = secs
	} else {
		out.ExecutionSeconds = c.now().Sub(start).Seconds()
	}

	c.log.Info("command executed",
		zap.String("command", req.Command),
		zap.String("job_status", out.JobStatus),
		zap.Float64("seconds", out.ExecutionSeconds),
		zap.Int("bytes", len(data)))
	return out, nil
}

func encodeJSON(req command.Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return nil, "", fmt.Errorf("encode request: %w", err)
	}
	return &buf, "application/json", nil
}

// encodeMultipart writes the three logical fields plus the raw file
// bytes. Field names match the engine's form contract: command, file,
// arguments (JSON object), flags (JSON array).
func encodeMultipart(req command.Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("command", req.Command); err != nil {
		return nil, "", fmt.Errorf("write command field: %w", err)
	}
	args, err := json.Marshal(req.Arguments)
	if err != nil {
		return nil, "", fmt.Errorf("encode arguments: %w", err)
	}
	if err := w.WriteField("arguments", string(args)); err != nil {
		return nil, "", fmt.Errorf("write arguments field: %w", err)
	}
	flags, err := json.Marshal(req.Flags)
	if err != nil {
		return nil, "", fmt.Errorf("encode flags: %w", err)
	}
	if err := w.WriteField("flags", string(flags)); err != nil {
		return nil, "", fmt.Errorf("write flags field: %w", err)
	}

	part, err := w.CreateFormFile("file", req.File.Name)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	src, err := os.Open(req.File.Path)
	if err != nil {
		return nil, "", fmt.Errorf("open structure file: %w", err)
	}
	defer src.Close()
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", fmt.Errorf("copy structure file: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finish multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// errorMessage pulls the human-readable failure out of an engine error
// body. The engine wraps failures as {"detail": ...} where detail is
// either the message itself or an object carrying one; anything else
// falls back to the raw body, then to the HTTP status text.
func errorMessage(body []byte, status int) string {
	var probe struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && len(probe.Detail) > 0 {
		var s string
		if err := json.Unmarshal(probe.Detail, &s); err == nil && s != "" {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(probe.Detail, &obj); err == nil && obj.Message != "" {
			return obj.Message
		}
	}
	if t := strings.TrimSpace(string(body)); t != "" {
		return t
	}
	return http.StatusText(status)
}
