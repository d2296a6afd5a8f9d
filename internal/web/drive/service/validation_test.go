package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateEntryName(t *testing.T) {
	t.Parallel()

	valid := []string{
		"cat.png",
		"notes",
		"with space.txt",
		"..leading-dots",
		"résumé.pdf",
		strings.Repeat("x", maxEntryNameLength),
	}
	for _, name := range valid {
		require.NoError(t, validateEntryName(name), "name %q", name)
	}

	invalid := []string{
		"",
		".",
		"..",
		"a/b",
		"/leading",
		"trailing/",
		`back\slash`,
		"../escape",
		"nul\x00byte",
		strings.Repeat("x", maxEntryNameLength+1),
	}
	for _, name := range invalid {
		err := validateEntryName(name)
		require.Error(t, err, "name %q", name)
		require.True(t, IsCode(err, ErrCodeInvalidArguments), "name %q", name)
	}
}
