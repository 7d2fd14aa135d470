// Package validation provides the credential policy applied to user input
// before it reaches the authentication layer.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/protopass/internal/cryptox"
)

// MinPasswordLength is the minimum number of characters of a login password.
const MinPasswordLength = 12

// minPerClass is how many characters of each class a strong password needs.
const minPerClass = 2

// symbols accepted by the strength check: the generator symbols and the backslash.
const symbols = cryptox.Symbol + "\\"

var (
	// ErrPasswordEmpty is returned for an empty password.
	ErrPasswordEmpty = errors.New("password is required")
	// ErrPasswordTooShort is returned when the password is shorter than MinPasswordLength.
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	// ErrPasswordFewLower is returned when fewer than two lowercase letters are present.
	ErrPasswordFewLower = errors.New("password must contain at least 2 lowercase letters")
	// ErrPasswordFewUpper is returned when fewer than two uppercase letters are present.
	ErrPasswordFewUpper = errors.New("password must contain at least 2 uppercase letters")
	// ErrPasswordFewDigits is returned when fewer than two digits are present.
	ErrPasswordFewDigits = errors.New("password must contain at least 2 digits")
	// ErrPasswordFewSymbols is returned when fewer than two symbols are present.
	ErrPasswordFewSymbols = errors.New("password must contain at least 2 symbols")

	// ErrEmailInvalid is returned when the email address does not match the accepted pattern.
	ErrEmailInvalid = errors.New("email address is not valid")
)

var emailRegex = regexp.MustCompile(`(?i)^[a-z0-9_-]+(?:[+&.][a-z0-9_-]+)*@(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)+[a-z0-9]+(?:-[a-z0-9]+)*$`)

// IsEmailValid reports whether s looks like an email address: a local part
// of letters, digits, '-' and '_' optionally segmented by '+', '&' or '.',
// and a domain of dot separated labels. Matching is case-insensitive.
func IsEmailValid(s string) bool {
	return emailRegex.MatchString(s)
}

// Email returns ErrEmailInvalid when s is not a valid email address.
func Email(s string) error {
	if !IsEmailValid(s) {
		return ErrEmailInvalid
	}
	return nil
}

type classCounts struct {
	lower, upper, digit, symbol int
}

func countClasses(s string) classCounts {
	var c classCounts
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			c.lower++
		case r >= 'A' && r <= 'Z':
			c.upper++
		case r >= '0' && r <= '9':
			c.digit++
		case strings.ContainsRune(symbols, r):
			c.symbol++
		}
	}
	return c
}

// PasswordProblems lists every strength rule s violates, in a stable order.
// A strong password yields an empty slice.
func PasswordProblems(s string) []error {
	if s == "" {
		return []error{ErrPasswordEmpty}
	}

	var problems []error
	if utf8.RuneCountInString(s) < MinPasswordLength {
		problems = append(problems, ErrPasswordTooShort)
	}

	c := countClasses(s)
	if c.lower < minPerClass {
		problems = append(problems, ErrPasswordFewLower)
	}
	if c.upper < minPerClass {
		problems = append(problems, ErrPasswordFewUpper)
	}
	if c.digit < minPerClass {
		problems = append(problems, ErrPasswordFewDigits)
	}
	if c.symbol < minPerClass {
		problems = append(problems, ErrPasswordFewSymbols)
	}
	return problems
}

// IsPasswordStrong reports whether s has at least 12 characters including
// two lowercase letters, two uppercase letters, two digits and two ASCII
// punctuation characters or spaces.
func IsPasswordStrong(s string) bool {
	return len(PasswordProblems(s)) == 0
}
