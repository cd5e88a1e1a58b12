package papertrade

import (
	"errors"
	"fmt"
	"strings"
)

const (
	maxSymbolLen = 12
	maxUserLen   = 64
)

// NormalizeSymbol returns the canonical, upper case form of a ticker symbol.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidateSymbol checks that s is a canonical ticker symbol: upper case
// letters, digits, '.' or '-'.
func ValidateSymbol(s string) error {
	if s == "" {
		return errors.New("symbol is missing")
	}
	if len(s) > maxSymbolLen {
		return fmt.Errorf("symbol %q is longer than %d characters", s, maxSymbolLen)
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
		default:
			return fmt.Errorf("symbol %q contains invalid character %q", s, r)
		}
	}
	return nil
}

// ValidateUser checks a user identifier. Identifiers are used as file names
// and storage keys, hence the restricted alphabet.
func ValidateUser(id string) error {
	if id == "" {
		return errors.New("user id is missing")
	}
	if len(id) > maxUserLen {
		return fmt.Errorf("user id %q is longer than %d characters", id, maxUserLen)
	}
	if id[0] == '.' {
		return fmt.Errorf("user id %q cannot start with a dot", id)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
		default:
			return fmt.Errorf("user id %q contains invalid character %q", id, r)
		}
	}
	return nil
}
