package intake

import (
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// formSpace is the ECMAScript whitespace set, which the site's scripts use
// for trimming and matching: ASCII whitespace, \v, the Unicode space
// separators, U+2028/U+2029 and the byte order mark. RE2's \s is ASCII only.
const formSpace = `\t\n\v\f\r \x{a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}`

// leadEmailPattern is deliberately permissive: something@something.something
// with no whitespace and a single "@".
var leadEmailPattern = regexp.MustCompile(`^[^@` + formSpace + `]+@[^@` + formSpace + `]+\.[^@` + formSpace + `]+$`)

// isFormSpace reports whether r belongs to formSpace.
func isFormSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		0x00a0, 0x1680, 0x2028, 0x2029, 0x202f, 0x205f, 0x3000, 0xfeff:
		return true
	}
	return r >= 0x2000 && r <= 0x200a
}

// trimFormSpace strips leading and trailing formSpace runes.
func trimFormSpace(s string) string {
	return strings.TrimFunc(s, isFormSpace)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// getValidator returns the shared validator with the custom rules registered.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("leademail", func(fl validator.FieldLevel) bool {
			return leadEmailPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// failedTag returns the tag of the first failing rule, or "" when err is not
// a validation failure.
func failedTag(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return ""
	}
	return verrs[0].Tag()
}
