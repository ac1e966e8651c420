package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moonclock/benchmark"
	"moonclock/config"
	"moonclock/display"
	"moonclock/errdefs"
	"moonclock/network"
	"moonclock/testutil"
)

const pragueResponse = `{"datetime":"2024-05-01T12:34:56.250000+02:00","timezone":"Europe/Prague","utc_offset":"+02:00"}`

var (
	checkFrame = fmt.Sprintf("%c ", display.GlyphCheck)
	crossFrame = fmt.Sprintf("%c ", display.GlyphCross)
)

type countingRestarter struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRestarter) Restart(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return errdefs.ErrRebuild
}

func (r *countingRestarter) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func timeServer(t *testing.T, failures int32) *httptest.Server {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) <= failures {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, pragueResponse)
	}))
	t.Cleanup(server.Close)
	return server
}

func testBackends(server *httptest.Server, connector network.Connector) (Backends, *testutil.RecordingSurface, *countingRestarter) {
	surface := testutil.NewRecordingSurface()
	restarter := &countingRestarter{}

	return Backends{
		Surface:   surface,
		Connector: connector,
		HTTP:      server.Client(),
		Clock:     clock.NewMock(),
		Pauser:    &testutil.RecordingPauser{},
		Restarter: restarter,
	}, surface, restarter
}

func timeApp(t *testing.T) config.AppConfig {
	app, err := config.NewAppConfig("time", map[string]interface{}{"duration": 0})
	require.NoError(t, err)
	return app
}

// cancelAfter cancels once content was shown n times.
func cancelAfter(surface *testutil.RecordingSurface, content string, n int32, cancel context.CancelFunc) {
	var shown int32
	surface.OnShow = func(frame testutil.Frame) {
		if frame.Content == content && atomic.AddInt32(&shown, 1) == n {
			cancel()
		}
	}
}

func TestDeviceReachesSteadyState(t *testing.T) {
	server := timeServer(t, 0)
	cfg := testutil.NewTestConfigBuilder().
		WithCredentials(network.Credential{ID: "bad"}, network.Credential{ID: "good", Secret: "hunter22"}).
		WithTimeURL(server.URL + "/api/timezone/").
		WithApps(timeApp(t)).
		Build()

	connector := testutil.NewScriptedConnector()
	connector.Unreachable["bad"] = true
	backends, surface, restarter := testBackends(server, connector)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cancelAfter(surface, "12:34", 5, cancel)

	device := NewDevice(cfg, backends)
	err := device.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []string{"bad", "good"}, connector.Attempts())
	assert.Equal(t, 1, surface.Count(crossFrame))
	assert.Equal(t, 1, surface.Count(checkFrame))
	assert.GreaterOrEqual(t, surface.Count("12:34"), 5)
	assert.Zero(t, surface.Count("RESET"))
	assert.Zero(t, restarter.Calls())

	frames := surface.Contents()
	require.GreaterOrEqual(t, len(frames), 8)
	assert.Equal(t, []string{"wifi setup", "~ bad", "x ", "~ good", "v ", "TIME  INIT", "APPS  INIT", "12:34"}, frames[:8])

	require.Len(t, device.Units, 1)
	_, ok := device.Timings.TimeTill(benchmark.PhaseRunLoop)
	assert.True(t, ok)
}

func TestDeviceResetsOnClockFailure(t *testing.T) {
	server := timeServer(t, 1)
	cfg := testutil.NewTestConfigBuilder().
		WithTimeURL(server.URL + "/api/timezone/").
		WithApps(timeApp(t)).
		Build()

	backends, surface, restarter := testBackends(server, testutil.NewScriptedConnector())

	err := NewDevice(cfg, backends).Run(context.Background())
	assert.ErrorIs(t, err, errdefs.ErrRebuild)

	assert.Equal(t, 1, restarter.Calls())
	assert.Equal(t, "RESET", surface.Last().Content)
	assert.Zero(t, surface.Count("APPS  INIT"))
}

func TestDeviceResetsOnAppFault(t *testing.T) {
	server := timeServer(t, 0)
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	crypto, err := config.NewAppConfig("crypto", map[string]interface{}{"duration": 0, "api": broken.URL})
	require.NoError(t, err)

	cfg := testutil.NewTestConfigBuilder().
		WithTimeURL(server.URL+"/api/timezone/").
		WithApps(timeApp(t), crypto, timeApp(t)).
		Build()

	backends, surface, restarter := testBackends(server, testutil.NewScriptedConnector())

	device := NewDevice(cfg, backends)
	err = device.Run(context.Background())
	assert.ErrorIs(t, err, errdefs.ErrRebuild)

	assert.Equal(t, 1, restarter.Calls())
	assert.Equal(t, 1, surface.Count("12:34"))
	assert.Equal(t, "RESET", surface.Last().Content)
	assert.Zero(t, device.Scheduler.Iterations())

	// a unit still holding the display after the reset cannot draw anymore
	assert.ErrorIs(t, device.Units[0].Run(context.Background()), display.ErrFenced)
	assert.Equal(t, "RESET", surface.Last().Content)
	assert.Equal(t, 1, surface.Count("12:34"))
}

func TestDeviceSkipsBrokenApps(t *testing.T) {
	server := timeServer(t, 0)
	unknown, err := config.NewAppConfig("lava_lamp", nil)
	require.NoError(t, err)

	cfg := testutil.NewTestConfigBuilder().
		WithTimeURL(server.URL+"/api/timezone/").
		WithApps(unknown, timeApp(t)).
		Build()

	backends, surface, _ := testBackends(server, testutil.NewScriptedConnector())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cancelAfter(surface, "12:34", 2, cancel)

	device := NewDevice(cfg, backends)
	assert.ErrorIs(t, device.Run(ctx), context.Canceled)

	require.Len(t, device.Units, 1)
	assert.Equal(t, "time", device.Units[0].Kind())
}

func TestRunDeviceRebuildsAfterReset(t *testing.T) {
	server := timeServer(t, 1)
	cfg := testutil.NewTestConfigBuilder().
		WithTimeURL(server.URL + "/api/timezone/").
		WithApps(timeApp(t)).
		Build()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var surfaces []*testutil.RecordingSurface
	open := func(cfg *config.Config) (Backends, error) {
		backends, surface, _ := testBackends(server, testutil.NewScriptedConnector())
		cancelAfter(surface, "12:34", 1, cancel)
		surfaces = append(surfaces, surface)
		return backends, nil
	}

	err := runDevice(ctx, cfg, clock.New(), open)
	require.NoError(t, err)

	require.Len(t, surfaces, 2)
	assert.Equal(t, "RESET", surfaces[0].Last().Content)
	assert.Equal(t, 1, surfaces[1].Count("12:34"))
	assert.Zero(t, surfaces[1].Count("RESET"))
}

func TestRunDeviceStopsWhileRetryingBackends(t *testing.T) {
	cfg := testutil.NewTestConfigBuilder().Build()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opens := 0
	open := func(cfg *config.Config) (Backends, error) {
		opens++
		cancel()
		return Backends{}, errors.New("i2c: no such bus")
	}

	// the mock clock never advances, so only the cancelled context ends the wait
	done := make(chan error, 1)
	go func() {
		done <- runDevice(ctx, cfg, clock.NewMock(), open)
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runDevice kept waiting to retry after shutdown")
	}
	assert.Equal(t, 1, opens)
}

func TestVersionCommand(t *testing.T) {
	rootCmd, err := newRootCommand()
	require.NoError(t, err)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "1.4.0")
}
