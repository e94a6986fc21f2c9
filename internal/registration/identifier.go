package registration

import (
	"fmt"
	"strconv"
	"strings"
)

const identifierPrefix = "Display"

// NextIdentifier returns the identifier following highest. An empty highest
// starts the sequence at Display0001; suffixes wider than four digits keep
// growing (Display9999 is followed by Display10000).
func NextIdentifier(highest string) (string, error) {
	if highest == "" {
		return FormatIdentifier(1), nil
	}

	suffix, ok := strings.CutPrefix(highest, identifierPrefix)
	if !ok || suffix == "" {
		return "", fmt.Errorf("%w: %q", ErrMalformedIdentifier, highest)
	}
	n, err := strconv.ParseUint(suffix, 10, 63)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedIdentifier, highest)
	}
	return FormatIdentifier(n + 1), nil
}

func FormatIdentifier(n uint64) string {
	return fmt.Sprintf("%s%04d", identifierPrefix, n)
}
