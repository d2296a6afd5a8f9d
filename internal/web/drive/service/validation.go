package service

import (
	"fmt"
	"strings"
)

// maxEntryNameLength matches the column width of Entry.Name.
const maxEntryNameLength = 255

// validateEntryName rejects names that cannot occupy one directory
// slot: empty, oversized, path navigation, or embedded separators that
// would shift an archive entry out of its directory.
func validateEntryName(name string) error {
	switch {
	case name == "":
		return NewError(ErrCodeInvalidArguments, "name must not be empty")
	case len(name) > maxEntryNameLength:
		return NewError(ErrCodeInvalidArguments,
			fmt.Sprintf("name must not exceed %d bytes", maxEntryNameLength))
	case name == "." || name == "..":
		return NewError(ErrCodeInvalidArguments,
			fmt.Sprintf("`%s` is not a valid name", name))
	case strings.ContainsAny(name, `/\`):
		return NewError(ErrCodeInvalidArguments, "name must not contain path separators")
	case strings.ContainsRune(name, '\x00'):
		return NewError(ErrCodeInvalidArguments, "name must not contain control characters")
	}

	return nil
}

// errDuplicateName reports a sibling-name collision, whether it was
// caught by the transactional count or by the schema's unique index.
func errDuplicateName(name string) error {
	return NewError(ErrCodeInvalidArguments,
		fmt.Sprintf("file or directory with name `%s` already exists in the current directory", name))
}
