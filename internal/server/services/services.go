// Package services holds the application logic behind the HTTP handlers:
// accounts, identity resolution, investment and site-config CRUD,
// preferences and synchronization.
package services

import (
	"time"
)

// Clock returns the current time as stored by the persistence layer.
type Clock func() time.Time

// SystemClock is UTC wall time truncated to the store's microsecond
// precision, so values read back compare equal to values written.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
