package errdefs

import "errors"

func IsConnectFailed(err error) bool {
	var target ErrConnectFailed
	return errors.As(err, &target)
}

func IsClockSync(err error) bool {
	var target ErrClockSync
	return errors.As(err, &target)
}

func IsUnknownApp(err error) bool {
	var target ErrUnknownApp
	return errors.As(err, &target)
}

func IsAppConstruction(err error) bool {
	var target ErrAppConstruction
	return errors.As(err, &target)
}

func IsAppFault(err error) bool {
	var target ErrAppFault
	return errors.As(err, &target)
}
