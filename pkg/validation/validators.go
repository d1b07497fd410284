package validation

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"
)

// Regex patterns
var (
	// Saudi local mobile number: 05 followed by 8 digits
	saudiMobileRegex = regexp.MustCompile(`^05[0-9]{8}$`)

	// Something@something.something with no whitespace or extra @.
	// \s in RE2 is ASCII only, so unicode separators and BOM are listed explicitly.
	basicEmailRegex = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)
)

// ProjectRequest mirrors the public project request form
type ProjectRequest struct {
	Name        string `json:"name" validate:"trimmed_min=3"`
	Description string `json:"description" validate:"trimmed_min=10"`
	Phone       string `json:"phone" validate:"saudi_mobile"`
	Email       string `json:"email" validate:"basic_email"`
}

// New returns a validator with the custom rules registered and field
// names reported by their json tag
func New() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("trimmed_min", TrimmedMin)
	_ = v.RegisterValidation("saudi_mobile", SaudiMobile)
	_ = v.RegisterValidation("basic_email", BasicEmail)
}

// TrimmedMin checks the trimmed length in UTF-16 code units, which is how
// the site's form counts characters
func TrimmedMin(fl validator.FieldLevel) bool {
	min, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return Length(TrimInput(fl.Field().String())) >= min
}

// SaudiMobile validates a normalized phone number (see NormalizeDigits)
func SaudiMobile(fl validator.FieldLevel) bool {
	return saudiMobileRegex.MatchString(fl.Field().String())
}

// BasicEmail validates the trimmed value against a permissive address pattern
func BasicEmail(fl validator.FieldLevel) bool {
	return basicEmailRegex.MatchString(TrimInput(fl.Field().String()))
}

// NormalizeDigits rewrites Arabic-Indic (٠-٩) and Eastern Arabic-Indic (۰-۹)
// digits to ASCII; every other rune is kept as is
func NormalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		}
		return r
	}, s)
}

// TrimInput strips the same leading and trailing characters as the
// browser's String.prototype.trim: Unicode white space, line terminators
// and the BOM. NEL (U+0085) is not white space there and is kept.
func TrimInput(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		if r == '\u0085' {
			return false
		}
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

// Length counts UTF-16 code units
func Length(s string) int {
	return len(utf16.Encode([]rune(s)))
}
