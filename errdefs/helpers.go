package errdefs

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")
var ErrFailedToParse = errors.New("failed to parse")
var ErrConfigNotProvided = errors.New("no config file provided")
var ErrRunTimeout = errors.New("app run exceeded its deadline")

// ErrRebuild is returned by a restarter that leaves the restart to the caller's
// boot loop instead of replacing the process.
var ErrRebuild = errors.New("device rebuild requested")

/*------------*/

type ErrConnectFailed struct {
	err error
	ID  string
}

func (e ErrConnectFailed) Error() string {
	return fmt.Sprintf("connecting to %s: %s", e.ID, e.err)
}

func (e ErrConnectFailed) Cause() error {
	return e.err
}

func (e ErrConnectFailed) Unwrap() error {
	return e.err
}

func ConnectFailed(err error, id string) error {
	if err == nil || IsConnectFailed(err) {
		return err
	}

	return ErrConnectFailed{err, id}
}

/*------------*/

type ErrClockSync struct{ error }

func (e ErrClockSync) Cause() error {
	return e.error
}

func (e ErrClockSync) Unwrap() error {
	return e.error
}

func ClockSync(err error) error {
	if err == nil || IsClockSync(err) {
		return err
	}

	return ErrClockSync{err}
}

/*------------*/

type ErrUnknownApp struct {
	Kind string
}

func (e ErrUnknownApp) Error() string {
	return fmt.Sprintf("unknown app %q", e.Kind)
}

func UnknownApp(kind string) error {
	return ErrUnknownApp{Kind: kind}
}

/*------------*/

type ErrAppConstruction struct {
	err   error
	Kind  string
	Index int
}

func (e ErrAppConstruction) Error() string {
	return fmt.Sprintf("initialization of app %s (entry %d) has failed: %s", e.Kind, e.Index, e.err)
}

func (e ErrAppConstruction) Cause() error {
	return e.err
}

func (e ErrAppConstruction) Unwrap() error {
	return e.err
}

func AppConstruction(err error, kind string, index int) error {
	if err == nil || IsAppConstruction(err) {
		return err
	}

	return ErrAppConstruction{err, kind, index}
}

/*------------*/

type ErrAppFault struct {
	err   error
	Kind  string
	Index int
}

func (e ErrAppFault) Error() string {
	return fmt.Sprintf("app %s (unit %d) has crashed: %s", e.Kind, e.Index, e.err)
}

func (e ErrAppFault) Cause() error {
	return e.err
}

func (e ErrAppFault) Unwrap() error {
	return e.err
}

func AppFault(err error, kind string, index int) error {
	if err == nil || IsAppFault(err) {
		return err
	}

	return ErrAppFault{err, kind, index}
}
