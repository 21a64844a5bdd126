package account

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	minPasswordLen = 6
	// bcrypt only looks at the first 72 bytes.
	maxPasswordBytes = 72
)

type policyError struct {
	msg string
}

func (e policyError) Error() string { return e.msg }
func (e policyError) Is(target error) bool {
	return target == ErrWeakPassword
}

// CheckPassword enforces the password policy: at least six characters with
// a digit, a lower-case letter, an upper-case letter and a symbol.
func CheckPassword(pw string) error {
	if len([]rune(pw)) < minPasswordLen {
		return policyError{fmt.Sprintf("must be at least %d characters", minPasswordLen)}
	}
	if len(pw) > maxPasswordBytes {
		return policyError{fmt.Sprintf("must be at most %d bytes", maxPasswordBytes)}
	}
	var digit, lower, upper, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			symbol = true
		}
	}
	var missing []string
	if !digit {
		missing = append(missing, "a digit")
	}
	if !lower {
		missing = append(missing, "a lower-case letter")
	}
	if !upper {
		missing = append(missing, "an upper-case letter")
	}
	if !symbol {
		missing = append(missing, "a non-alphanumeric character")
	}
	if len(missing) > 0 {
		return policyError{"must contain " + strings.Join(missing, ", ")}
	}
	return nil
}

var passwordRule = validation.By(func(v interface{}) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	return CheckPassword(s)
})

func equalsRule(other string) validation.Rule {
	return validation.By(func(v interface{}) error {
		s, _ := v.(string)
		if s != other {
			return errors.New("does not match password")
		}
		return nil
	})
}

var emailRules = []validation.Rule{validation.Length(3, 254), is.Email}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
