package manifest

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrUnsafePackageName is returned for names that could be read as shell
// syntax or as a command line option.
var ErrUnsafePackageName = errors.New("unsafe package name")

const shellMetacharacters = ";&|<>$`\\\"'(){}[]*?!"

func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrUnsafePackageName)
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("%w: %q starts with '-'", ErrUnsafePackageName, name)
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune(shellMetacharacters, r) {
			return fmt.Errorf("%w: %q contains %q", ErrUnsafePackageName, name, r)
		}
	}
	return nil
}

// Validate checks every name in the set, reporting the first offender in
// sorted order.
func (s PackageSet) Validate() error {
	for _, name := range s.Sorted() {
		if err := ValidateName(name); err != nil {
			return err
		}
	}
	return nil
}
