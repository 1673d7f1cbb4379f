package kernel

import "errors"

var (
	ErrStarted         = errors.New("scheduler already started")
	ErrStopped         = errors.New("scheduler stopped")
	ErrNoTasks         = errors.New("no tasks")
	ErrNoEntry         = errors.New("nil entry")
	ErrTooManyTasks    = errors.New("too many tasks")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrPriorityExists  = errors.New("priority in use")
	ErrStackTooSmall   = errors.New("stack too small")
	ErrTaskReturned    = errors.New("task entry returned")

	ErrTickArmed    = errors.New("tick source already armed")
	ErrTickNotArmed = errors.New("delay before tick source armed")
	ErrNotHighest   = errors.New("tick source must be armed by the highest-priority task")

	ErrInvalidMutex = errors.New("invalid mutex")
	ErrCeiling      = errors.New("task priority not below mutex ceiling")
	ErrRecursive    = errors.New("mutex already held by caller")
	ErrNotOwner     = errors.New("mutex not held by caller")
	ErrTimeout      = errors.New("pend timeout")
)
