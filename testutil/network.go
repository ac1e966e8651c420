package testutil

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"moonclock/network"
)

var ErrScriptedFailure = errors.New("scripted connection failure")

// ScriptedConnector answers connection attempts from Script, in order. Once
// the script is used up, credentials listed in Unreachable fail and all others
// connect.
type ScriptedConnector struct {
	mu       sync.Mutex
	attempts []string

	Script      []error
	Unreachable map[string]bool
}

func NewScriptedConnector(script ...error) *ScriptedConnector {
	return &ScriptedConnector{Script: script, Unreachable: map[string]bool{}}
}

func (c *ScriptedConnector) Connect(ctx context.Context, credential network.Credential) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attempts = append(c.attempts, credential.ID)

	if err := ctx.Err(); err != nil {
		return err
	}

	if len(c.Script) > 0 {
		err := c.Script[0]
		c.Script = c.Script[1:]
		return err
	}

	if c.Unreachable[credential.ID] {
		return errors.Wrap(ErrScriptedFailure, credential.ID)
	}

	return nil
}

func (c *ScriptedConnector) Attempts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.attempts...)
}

// Failures returns a script of n failures.
func Failures(n int) []error {
	script := make([]error, n)
	for i := range script {
		script[i] = ErrScriptedFailure
	}
	return script
}
