package models

// User is the authenticated contributor as handed over by the upstream
// auth layer. This service never stores or verifies credentials.
type User struct {
	ID            int64
	Name          string
	License       License
	EmailVerified bool
	Admin         bool
}
