package validator

import (
	"fmt"
)

const (
	maxUsernameLength = 255
	maxPasswordLength = 128
	asciiControlStart = 32
	asciiDelete       = 127

	errUsernameEmptyFmt        = "username cannot be empty"
	errUsernameMaxLengthFmt    = "username must not exceed %d characters"
	errUsernameControlCharsFmt = "username cannot contain control characters"
	errPasswordEmptyFmt        = "password cannot be empty"
	errPasswordMaxLengthFmt    = "password must not exceed %d characters"
)

// Username checks a login name. The backend owns the account rules; this
// only rejects input no account could match.
func Username(username string) error {
	if username == "" {
		return fmt.Errorf(errUsernameEmptyFmt)
	}

	if len(username) > maxUsernameLength {
		return fmt.Errorf(errUsernameMaxLengthFmt, maxUsernameLength)
	}

	if hasControlChars(username) {
		return fmt.Errorf(errUsernameControlCharsFmt)
	}

	return nil
}

// Password bounds a submitted password. No minimum is enforced at login.
func Password(password string) error {
	if password == "" {
		return fmt.Errorf(errPasswordEmptyFmt)
	}

	if len(password) > maxPasswordLength {
		return fmt.Errorf(errPasswordMaxLengthFmt, maxPasswordLength)
	}

	return nil
}

func hasControlChars(s string) bool {
	for _, char := range s {
		if char < asciiControlStart || char == asciiDelete {
			return true
		}
	}
	return false
}
