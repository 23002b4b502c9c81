// Package enginemock serves a local stand-in for the PDB Engine API.
// It speaks the engine's execute contract end to end, so the client
// can be exercised without a compute backend.
package enginemock

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/XRed8X/PDB-Engine/internal/catalog"
	"github.com/XRed8X/PDB-Engine/internal/gateway"
)

const (
	apiTitle       = "PDB Engine API"
	apiVersion     = "2.0.0"
	apiDescription = "Local mock engine for protein design command execution"
)

// Options configure the mock engine.
type Options struct {
	Catalog      *catalog.Catalog // defaults to the embedded catalog
	Latency      time.Duration    // added to every execution
	FailWith     string           // when set, every execution fails with this stderr text
	MaxFileBytes int64            // upload cap, defaults to 100 MiB
	Logger       *zap.Logger
}

// Server implements the engine's HTTP surface.
type Server struct {
	opts Options
	mux  *http.ServeMux
}

// New builds a mock engine server.
func New(opts Options) *Server {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = 100 << 20
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Server{opts: opts, mux: http.NewServeMux()}
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/api/execute", s.handleExecute)
	return s
}

// Handler returns the root handler for mounting on an http.Server.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":     apiTitle,
		"version":     apiVersion,
		"description": apiDescription,
	})
}

// execRequest is the decoded execute payload, from either encoding.
type execRequest struct {
	Command   string            `json:"command"`
	Arguments map[string]string `json:"arguments"`
	Flags     []string          `json:"flags"`

	fileName string
	fileData []byte
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	start := time.Now()

	req, err := s.parseExec(r)
	if err != nil {
		var herr *httpError
		if errors.As(err, &herr) {
			writeDetail(w, herr.status, herr.detail)
			return
		}
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Internal server error: %v", err))
		return
	}

	s.opts.Logger.Info("execute called",
		zap.String("command", req.Command),
		zap.Int("arguments", len(req.Arguments)),
		zap.Int("flags", len(req.Flags)),
		zap.String("file", req.fileName))

	// command validity is checked before anything about the upload
	if _, ok := s.opts.Catalog.Lookup(req.Command); !ok {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Invalid command: %s", req.Command))
		return
	}

	if req.fileName != "" {
		if !strings.HasSuffix(strings.ToLower(req.fileName), ".pdb") {
			writeDetail(w, http.StatusBadRequest, "Only PDB files are allowed")
			return
		}
		if int64(len(req.fileData)) > s.opts.MaxFileBytes {
			writeDetail(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File too large (max %.1f MB)", float64(s.opts.MaxFileBytes)/(1<<20)))
			return
		}
	}

	jobID := uuid.NewString()
	if s.opts.Latency > 0 {
		time.Sleep(s.opts.Latency)
	}

	if s.opts.FailWith != "" {
		s.opts.Logger.Warn("execution failed",
			zap.String("job_id", jobID),
			zap.String("command", req.Command))
		writeDetail(w, http.StatusInternalServerError,
			fmt.Sprintf("Command execution failed: %s", s.opts.FailWith))
		return
	}

	archive, err := buildResultZip(req, jobID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to create results archive")
		return
	}

	elapsed := time.Since(start).Seconds()
	name := fmt.Sprintf("%s_results_%s.zip", strings.ToLower(req.Command), jobID)

	s.opts.Logger.Info("execution finished",
		zap.String("job_id", jobID),
		zap.String("command", req.Command),
		zap.Float64("seconds", elapsed))

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set(gateway.HeaderExecutionTime, strconv.FormatFloat(elapsed, 'f', -1, 64))
	w.Header().Set(gateway.HeaderJobStatus, "finished")
	_, _ = w.Write(archive)
}

func (s *Server) parseExec(r *http.Request) (*execRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		return s.parseMultipart(r)
	}
	return parseJSONBody(r)
}

func parseJSONBody(r *http.Request) (*execRequest, error) {
	req := &execRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return nil, badRequest("Invalid JSON format: %v", err)
	}
	if req.Arguments == nil {
		req.Arguments = map[string]string{}
	}
	return req, nil
}

func (s *Server) parseMultipart(r *http.Request) (*execRequest, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, badRequest("Invalid multipart form: %v", err)
	}

	req := &execRequest{
		Command:   r.FormValue("command"),
		Arguments: map[string]string{},
		Flags:     []string{},
	}

	argsJSON := r.FormValue("arguments")
	if argsJSON == "" {
		argsJSON = "{}"
	}
	flagsJSON := r.FormValue("flags")
	if flagsJSON == "" {
		flagsJSON = "[]"
	}
	if err := json.Unmarshal([]byte(argsJSON), &req.Arguments); err != nil {
		return nil, badRequest("Invalid JSON format: %v", err)
	}
	if err := json.Unmarshal([]byte(flagsJSON), &req.Flags); err != nil {
		return nil, badRequest("Invalid JSON format: %v", err)
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		data, rerr := io.ReadAll(file)
		if rerr != nil {
			return nil, fmt.Errorf("read upload: %w", rerr)
		}
		req.fileName = header.Filename
		req.fileData = data
	case errors.Is(err, http.ErrMissingFile):
	default:
		return nil, badRequest("Invalid multipart form: %v", err)
	}
	return req, nil
}

// buildResultZip assembles the results archive: a run log plus the
// uploaded structure, the same walk a real job workspace would get.
func buildResultZip(req *execRequest, jobID string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	var runLog strings.Builder
	fmt.Fprintf(&runLog, "job_id: %s\n", jobID)
	fmt.Fprintf(&runLog, "command: %s\n", req.Command)
	keys := make([]string, 0, len(req.Arguments))
	for k := range req.Arguments {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&runLog, "arg %s=%s\n", k, req.Arguments[k])
	}
	for _, f := range req.Flags {
		fmt.Fprintf(&runLog, "flag %s\n", f)
	}
	runLog.WriteString("status: finished\n")

	w, err := zw.Create(strings.ToLower(req.Command) + ".log")
	if err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte(runLog.String())); err != nil {
		return nil, err
	}

	if req.fileName != "" {
		w, err := zw.Create(sanitizeFilename(req.fileName))
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(req.fileData); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type httpError struct {
	status int
	detail string
}

func (e *httpError) Error() string { return e.detail }

func badRequest(format string, args ...any) *httpError {
	return &httpError{status: http.StatusBadRequest, detail: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeDetail emits the engine's error envelope.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}
