package job

import "errors"

var (
	// ErrNotConfigured is returned by context helpers when the app has no job queue.
	ErrNotConfigured = errors.New("job: not configured")

	// ErrUnknownTask is returned when a job names a task nobody registered.
	ErrUnknownTask = errors.New("job: unknown task")

	// ErrDuplicateTask is returned by NewManager when two tasks share a name.
	ErrDuplicateTask = errors.New("job: duplicate task")

	// ErrInvalidPayload is returned when a payload does not decode into the task's type.
	ErrInvalidPayload = errors.New("job: invalid payload")

	ErrAlreadyStarted = errors.New("job: already started")
	ErrNotStarted     = errors.New("job: not started")

	// ErrPoolRequired is returned when a constructor gets a nil pool.
	ErrPoolRequired = errors.New("job: pool is required")
)
