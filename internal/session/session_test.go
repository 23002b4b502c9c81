package session

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/XRed8X/PDB-Engine/internal/catalog"
	"github.com/XRed8X/PDB-Engine/internal/command"
	"github.com/XRed8X/PDB-Engine/internal/enginemock"
	"github.com/XRed8X/PDB-Engine/internal/form"
	"github.com/XRed8X/PDB-Engine/internal/gateway"
	"github.com/XRed8X/PDB-Engine/internal/history"
)

type fakeExecutor struct {
	fn func(ctx context.Context, req command.Request) (*gateway.Outcome, error)
}

func (f *fakeExecutor) Execute(ctx context.Context, req command.Request) (*gateway.Outcome, error) {
	return f.fn(ctx, req)
}

func newTestSession(t *testing.T, exec Executor) *Session {
	t.Helper()
	hist := history.New(history.Options{
		DownloadDir: filepath.Join(t.TempDir(), "downloads"),
		StagingDir:  filepath.Join(t.TempDir(), "staging"),
	})
	s := New(catalog.Default(), exec, hist, nil)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSubmitSuccessLifecycle(t *testing.T) {
	t.Parallel()

	var s *Session
	exec := &fakeExecutor{fn: func(ctx context.Context, req command.Request) (*gateway.Outcome, error) {
		// the pending entry must exist before the gateway is reached
		records := s.Records()
		require.Len(t, records, 1)
		require.Equal(t, history.StatusPending, records[0].Status)
		require.Equal(t, history.PendingFilename, records[0].Filename)
		require.True(t, s.InFlight())

		require.Equal(t, "ProteinDesign", req.Command)
		require.Equal(t, "1abc.pdb", req.Arguments["pdb"])
		require.Equal(t, []string{"physics"}, req.Flags)
		return &gateway.Outcome{Data: []byte("zip"), ExecutionSeconds: 2.5, JobStatus: "completed"}, nil
	}}
	s = newTestSession(t, exec)

	s.SelectCommand("ProteinDesign")
	require.NoError(t, s.SetFile("pdb", &form.FileRef{Name: "1abc.pdb", Path: "/tmp/1abc.pdb"}))
	require.NoError(t, s.SetFlag("physics", true))

	rec, err := s.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, history.StatusFinished, rec.Status)
	require.Equal(t, 2.5, rec.ExecutionSeconds)
	require.NotEmpty(t, rec.DownloadPath)
	require.Regexp(t, `^proteindesign_results_.+\.zip$`, rec.Filename)

	require.False(t, s.InFlight())
	require.True(t, s.LastSuccess())
	require.Empty(t, s.LastError())
	require.NotNil(t, s.CurrentHandle())
	require.FileExists(t, s.SavedPath(rec))
}

func TestSubmitFailureSurfacesRemoteMessage(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{fn: func(ctx context.Context, req command.Request) (*gateway.Outcome, error) {
		time.Sleep(10 * time.Millisecond)
		return nil, &gateway.RemoteError{StatusCode: 503, Message: "binary not found"}
	}}
	s := newTestSession(t, exec)

	s.SelectCommand("Minimize")
	rec, err := s.Submit(context.Background())
	require.EqualError(t, err, "binary not found")
	require.Equal(t, "binary not found", s.LastError())
	require.False(t, s.LastSuccess())
	require.False(t, s.InFlight())

	require.Equal(t, history.StatusError, rec.Status)
	require.Equal(t, history.FailedFilename, rec.Filename)
	require.Greater(t, rec.ExecutionSeconds, 0.0)
	require.Empty(t, rec.DownloadPath)
}

func TestSubmitWithoutCommand(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, &fakeExecutor{fn: func(ctx context.Context, req command.Request) (*gateway.Outcome, error) {
		t.Error("gateway must not be reached without a command")
		return nil, nil
	}})

	_, err := s.Submit(context.Background())
	require.ErrorIs(t, err, ErrNoCommand)
	require.Empty(t, s.Records())
}

func TestEditClearsSubmissionIndicators(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{fn: func(ctx context.Context, req command.Request) (*gateway.Outcome, error) {
		return nil, &gateway.RemoteError{StatusCode: 500, Message: "boom"}
	}}
	s := newTestSession(t, exec)

	s.SelectCommand("Minimize")
	_, err := s.Submit(context.Background())
	require.Error(t, err)
	require.Equal(t, "boom", s.LastError())

	require.NoError(t, s.SetText("prefix", "minimized"))
	require.Empty(t, s.LastError())
	require.False(t, s.LastSuccess())

	// a failed edit is not an edit: the indicator survives
	exec.fn = func(ctx context.Context, req command.Request) (*gateway.Outcome, error) {
		return &gateway.Outcome{Data: []byte("ok"), ExecutionSeconds: 0.1}, nil
	}
	_, err = s.Submit(context.Background())
	require.NoError(t, err)
	require.True(t, s.LastSuccess())
	require.Error(t, s.SetText("not_a_field", "x"))
	require.True(t, s.LastSuccess())
}

func TestSelectUnknownCommandSuggests(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, &fakeExecutor{})
	s.SelectCommand("ProteinDsign")

	require.Empty(t, s.SelectedCommand())
	require.Nil(t, s.ActiveConfig())
	require.Empty(t, s.Preview())
	require.Equal(t, "ProteinDesign", s.Suggestion())

	s.SelectCommand("ProteinDesign")
	require.Empty(t, s.Suggestion())
	require.Equal(t, "--command=ProteinDesign", s.Preview())
}

// newEngineSession wires the full client stack against the in-repo mock
// engine: real gateway, real controller, HTTP in between.
func newEngineSession(t *testing.T, opts enginemock.Options) *Session {
	t.Helper()
	srv := httptest.NewServer(enginemock.New(opts).Handler())
	t.Cleanup(srv.Close)
	client := gateway.New(gateway.Options{BaseURL: srv.URL})
	hist := history.New(history.Options{
		DownloadDir: filepath.Join(t.TempDir(), "downloads"),
		StagingDir:  filepath.Join(t.TempDir(), "staging"),
	})
	s := New(catalog.Default(), client, hist, nil)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSubmitAgainstMockEngine(t *testing.T) {
	t.Parallel()

	pdbPath := filepath.Join(t.TempDir(), "1abc.pdb")
	require.NoError(t, os.WriteFile(pdbPath, []byte("ATOM      1  N   MET A   1"), 0o644))

	s := newEngineSession(t, enginemock.Options{Latency: 20 * time.Millisecond})
	s.SelectCommand("Minimize")
	require.NoError(t, s.SetFile("pdb", &form.FileRef{Name: "1abc.pdb", Path: pdbPath}))
	require.NoError(t, s.SetText("prefix", "min1"))
	require.NoError(t, s.SetFlag("physics", true))

	rec, err := s.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, history.StatusFinished, rec.Status)
	require.GreaterOrEqual(t, rec.ExecutionSeconds, 0.02)
	require.True(t, s.LastSuccess())

	saved, err := os.ReadFile(s.SavedPath(rec))
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(saved), int64(len(saved)))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	require.Contains(t, names, "minimize.log")
	require.Contains(t, names, "1abc.pdb")
}

func TestSubmitMockEngineFailureVerbatim(t *testing.T) {
	t.Parallel()

	s := newEngineSession(t, enginemock.Options{FailWith: "binary not found"})
	s.SelectCommand("Minimize")

	rec, err := s.Submit(context.Background())
	require.EqualError(t, err, "Command execution failed: binary not found")
	require.Equal(t, "Command execution failed: binary not found", s.LastError())
	require.Equal(t, history.StatusError, rec.Status)
	require.Equal(t, history.FailedFilename, rec.Filename)
}

func TestOverlappingSubmissionsSettleOwnEntries(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{}, 2)
	exec := &fakeExecutor{fn: func(ctx context.Context, req command.Request) (*gateway.Outcome, error) {
		started <- struct{}{}
		<-release
		if req.Command == "Minimize" {
			return &gateway.Outcome{Data: []byte("min"), ExecutionSeconds: 0.2}, nil
		}
		return nil, &gateway.RemoteError{StatusCode: 500, Message: "evaluation failed"}
	}}
	s := newTestSession(t, exec)

	var wg sync.WaitGroup
	submit := func(cmd string) {
		defer wg.Done()
		s.SelectCommand(cmd)
		_, _ = s.Submit(context.Background())
	}
	wg.Add(2)
	go submit("Minimize")
	<-started
	go submit("PredSS")
	<-started

	records := s.Records()
	require.Len(t, records, 2)
	require.Equal(t, history.StatusPending, records[0].Status)
	require.Equal(t, history.StatusPending, records[1].Status)
	require.NotEqual(t, records[0].ID, records[1].ID)
	require.True(t, s.InFlight())

	close(release)
	wg.Wait()

	byCommand := map[string]history.Record{}
	for _, r := range s.Records() {
		byCommand[r.Command] = r
	}
	require.Equal(t, history.StatusFinished, byCommand["Minimize"].Status)
	require.Equal(t, history.StatusError, byCommand["PredSS"].Status)
	require.False(t, s.InFlight())
}
