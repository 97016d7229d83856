package tasks

import "time"

const (
	timeout = time.Second
	tick    = time.Millisecond
)
