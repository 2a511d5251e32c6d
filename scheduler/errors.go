package scheduler

import "errors"

// errAlreadyRunning is returned by Run if called more than once on the
// same Scheduler.
var errAlreadyRunning = errors.New("scheduler: Run called while already running")
