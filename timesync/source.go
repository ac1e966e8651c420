// Package timesync provides the device wall clock: one reading from a remote
// time service, projected forward with the monotonic clock.
package timesync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"moonclock/errdefs"
)

const (
	DefaultTimeURL  = "https://worldtimeapi.org/api/timezone/"
	DefaultTimezone = "Europe/Prague"

	maxBodySize = 1 << 16
)

// Doer issues HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Snapshot is the single reading the clock is derived from. AnchorMonotonic
// is the local clock reading taken when the response arrived.
type Snapshot struct {
	AnchorWallTime  time.Time
	AnchorMonotonic time.Time
}

type Source struct {
	snapshot Snapshot
	clock    clock.Clock
}

type timeResponse struct {
	Datetime  string `json:"datetime"`
	Timezone  string `json:"timezone"`
	UTCOffset string `json:"utc_offset"`
}

// Sync fetches the current time for timezone from timeURL exactly once. Every
// failure is returned wrapped in errdefs.ErrClockSync.
func Sync(ctx context.Context, client Doer, clk clock.Clock, timeURL string, timezone string) (*Source, error) {
	endpoint := timeURL + timezone

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errdefs.ClockSync(errors.Wrap(err, "failed to build time request"))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errdefs.ClockSync(errors.Wrapf(err, "failed to reach %s", endpoint))
	}
	defer resp.Body.Close()

	anchorMonotonic := clk.Now()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errdefs.ClockSync(errors.Errorf("%s answered with %s", endpoint, resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errdefs.ClockSync(errors.Wrap(err, "failed to read time response"))
	}

	wallTime, err := parseDatetime(body)
	if err != nil {
		return nil, errdefs.ClockSync(err)
	}

	log.Ctx(ctx).Info().Msgf("Clock synced to %s (%s)", wallTime.Format(time.RFC3339), timezone)

	return &Source{
		snapshot: Snapshot{AnchorWallTime: wallTime, AnchorMonotonic: anchorMonotonic},
		clock:    clk,
	}, nil
}

func parseDatetime(body []byte) (time.Time, error) {
	var payload timeResponse
	err := json.Unmarshal(body, &payload)
	if err != nil {
		return time.Time{}, errors.Wrap(errdefs.ErrFailedToParse, err.Error())
	}

	if payload.Datetime == "" {
		return time.Time{}, errors.Wrap(errdefs.ErrFailedToParse, "response has no datetime field")
	}

	wallTime, err := time.Parse(time.RFC3339Nano, payload.Datetime)
	if err != nil {
		return time.Time{}, errors.Wrap(errdefs.ErrFailedToParse, fmt.Sprintf("datetime %q: %s", payload.Datetime, err))
	}

	return wallTime, nil
}

// Now returns the synced time plus the monotonic time elapsed since the sync,
// in the offset the time service reported.
func (s *Source) Now() time.Time {
	return s.snapshot.AnchorWallTime.Add(s.clock.Since(s.snapshot.AnchorMonotonic))
}

func (s *Source) Snapshot() Snapshot {
	return s.snapshot
}
