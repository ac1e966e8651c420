package connectivity

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"moonclock/display"
	"moonclock/errdefs"
	"moonclock/network"
)

// Pauser waits for d, or less when ctx is done first.
type Pauser interface {
	Pause(ctx context.Context, d time.Duration) error
}

type Timings struct {
	Attempt  time.Duration // upper bound of a single connection attempt
	Frame    time.Duration // how long a status frame stays up
	Cooldown time.Duration // pause after a round in which every credential failed
}

func DefaultTimings() Timings {
	return Timings{
		Attempt:  time.Second * 15,
		Frame:    time.Second,
		Cooldown: time.Second * 5,
	}
}

// Manager walks the credential list until one of them connects, showing every
// step on the display. The device has no offline mode, so it never gives up.
type Manager struct {
	surface   display.Surface
	connector network.Connector
	pauser    Pauser
	timings   Timings
	state     State
}

func NewManager(surface display.Surface, connector network.Connector, pauser Pauser, timings Timings) *Manager {
	return &Manager{
		surface:   surface,
		connector: connector,
		pauser:    pauser,
		timings:   timings,
	}
}

func (m *Manager) State() State {
	return m.state
}

// Connect blocks until a credential connected and returns it. The only error
// it returns is the one of ctx, once ctx is cancelled.
func (m *Manager) Connect(ctx context.Context, credentials []network.Credential) (network.Credential, error) {
	m.state = State{Phase: Disconnected}

	for {
		if err := ctx.Err(); err != nil {
			return network.Credential{}, err
		}

		m.state = m.Step(ctx, m.state, credentials)
		if m.state.Phase == Connected {
			return credentials[m.state.Index], nil
		}
	}
}

// Step carries out the side effects of s (frames, pauses, a connection
// attempt) and returns the next state. When ctx ends during a pause, s is
// returned unchanged.
func (m *Manager) Step(ctx context.Context, s State, credentials []network.Credential) State {
	switch s.Phase {
	case Disconnected:
		return Transition(s, EventBeginRound, len(credentials))

	case Trying:
		connected, err := m.attempt(ctx, credentials[s.Index])
		if err != nil {
			return s
		}
		if connected {
			return Transition(s, EventAttemptSucceeded, len(credentials))
		}
		return Transition(s, EventAttemptFailed, len(credentials))

	case AllExhausted:
		log.Ctx(ctx).Warn().Msgf("none of the %d configured networks could be joined, retrying in %s", len(credentials), 2*m.timings.Cooldown)
		m.frame(ctx, "no wifi!", true)
		if m.pauser.Pause(ctx, m.timings.Cooldown) != nil {
			return s
		}
		m.frame(ctx, "scanning..", true)
		if m.pauser.Pause(ctx, m.timings.Cooldown) != nil {
			return s
		}
		return Transition(s, EventCooledDown, len(credentials))
	}

	return s
}

// attempt tries one credential. The error is only set when ctx ended during
// one of the pauses.
func (m *Manager) attempt(ctx context.Context, credential network.Credential) (bool, error) {
	log.Ctx(ctx).Info().Msgf("Connecting to %s", credential.ID)
	m.frame(ctx, fmt.Sprintf("%c %s", display.GlyphWiFi, truncate(credential.ID, 8)), false)
	err := m.pauser.Pause(ctx, m.timings.Frame)
	if err != nil {
		return false, err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, m.timings.Attempt)
	defer cancel()

	err = m.connector.Connect(attemptCtx, credential)
	if err != nil {
		err = errdefs.ConnectFailed(err, credential.ID)
		log.Ctx(ctx).Warn().Err(err).Msgf("Connection to %s has failed. Trying next network...", credential.ID)
		m.frame(ctx, fmt.Sprintf("%c ", display.GlyphCross), true)
		return false, m.pauser.Pause(ctx, m.timings.Frame)
	}

	log.Ctx(ctx).Info().Msgf("Connected to %s!", credential.ID)
	m.frame(ctx, fmt.Sprintf("%c ", display.GlyphCheck), true)
	_ = m.pauser.Pause(ctx, m.timings.Frame)
	return true, nil
}

func (m *Manager) frame(ctx context.Context, content string, centered bool) {
	m.surface.Clear()
	m.surface.RenderText(content, centered)
	err := m.surface.Show()
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msgf("failed to show status frame %q", content)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}
