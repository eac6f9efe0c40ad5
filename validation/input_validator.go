// Package validation provides input validation for the wizard forms and the suggestion API.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrNotANumber is returned when the count is empty or not a base-10 integer
	ErrNotANumber = errors.New("count is not an integer")
	// ErrNegative is returned for counts below zero
	ErrNegative = errors.New("count is negative")
	// ErrTooLarge is returned for counts above the configured maximum
	ErrTooLarge = errors.New("count exceeds maximum")
)

var (
	// Letters from any script, digits, spaces and the punctuation found in drug names
	queryRegex = regexp.MustCompile(`^[\p{L}\p{M}0-9\s\-\.\+'/,()]+$`)

	// Substring checks are cheaper than a regex for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "eval(", "expression(",
		"' or ", "\" or ", "union select", "drop table", "--", "/*", "*/",
		"../", "..\\", "%2e%2e", "file://",
		"$(", "${", "`",
	}
)

// InputValidatorImpl validates the count field and suggestion queries
type InputValidatorImpl struct {
	maxCount int
}

// NewInputValidator creates a validator accepting drug counts up to maxCount
func NewInputValidator(maxCount int) *InputValidatorImpl {
	return &InputValidatorImpl{maxCount: maxCount}
}

// ParseCount parses raw against the configured maximum
func (v *InputValidatorImpl) ParseCount(raw string) (int, error) {
	return ParseCount(raw, v.maxCount)
}

// MaxCount returns the largest accepted drug count
func (v *InputValidatorImpl) MaxCount() int {
	return v.maxCount
}

// ParseCount parses the raw count field. Surrounding whitespace is ignored,
// anything else that is not a base-10 integer is rejected. A max <= 0 disables the upper bound.
func ParseCount(raw string, max int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, ErrNotANumber
	}

	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, trimmed)
	}

	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegative, n)
	}

	if max > 0 && n > max {
		return 0, fmt.Errorf("%w: %d > %d", ErrTooLarge, n, max)
	}

	return n, nil
}

// NormalizeName trims a drug name and puts it in Unicode NFC form
func NormalizeName(raw string) string {
	return norm.NFC.String(strings.TrimSpace(raw))
}

// MissingNames returns the 1-based indexes of the first count entries that are blank.
// Entries beyond len(names) count as blank.
func MissingNames(names []string, count int) []int {
	var missing []int
	for i := 0; i < count; i++ {
		if i >= len(names) || NormalizeName(names[i]) == "" {
			missing = append(missing, i+1)
		}
	}
	return missing
}

// ValidateQuery checks a suggestion search query
func (v *InputValidatorImpl) ValidateQuery(input string) error {
	return ValidateQuery(input)
}

// ValidateQuery checks a suggestion search query. Queries are prefixes typed
// into a name field so a single character is accepted.
func ValidateQuery(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("query cannot be empty")
	}

	if len(input) > 50 {
		return fmt.Errorf("query too long: maximum 50 characters")
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("query contains potentially dangerous content")
		}
	}

	if !queryRegex.MatchString(input) {
		return fmt.Errorf("query contains invalid characters")
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("query contains excessive character repetition")
	}

	return nil
}

// hasExcessiveRepetition reports the same byte repeated more than 10 times in a row
func hasExcessiveRepetition(input string) bool {
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}
