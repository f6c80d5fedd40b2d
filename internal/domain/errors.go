package domain

import "errors"

var (
	ErrEntryNotFound      = errors.New("autostart entry not found")
	ErrBlankExec          = errors.New("exec command is blank")
	ErrNoFreeBasename     = errors.New("no free basename after bounded probing")
	ErrEntryNotRegistered = errors.New("copied file did not yield an entry")
)
