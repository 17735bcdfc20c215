package mappers

import "time"

// utcPtr normalizes nullable timestamps read back from the driver.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
