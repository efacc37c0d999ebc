package migrate

import (
	"fmt"
	"strconv"
	"strings"
)

// Identifier names a single migration. Version is the ordering key and must
// be unique across the migration set; Name is a human-readable slug carried
// alongside it.
type Identifier struct {
	Version int64
	Name    string
}

// ParseIdentifier parses a migration directory name of the form
// "M0001_initialize-schema". The leading "M" (or "m") is optional, the
// version digits are not zero-padded-sensitive, and everything after the
// first underscore is the name.
func ParseIdentifier(directoryName string) (Identifier, error) {
	remainder := strings.TrimPrefix(strings.TrimPrefix(directoryName, "M"), "m")

	versionPart, name, found := strings.Cut(remainder, "_")
	if !found {
		return Identifier{}, fmt.Errorf("invalid migration directory name %q: missing underscore separator", directoryName)
	}
	if versionPart == "" {
		return Identifier{}, fmt.Errorf("invalid migration directory name %q: empty version", directoryName)
	}
	if name == "" {
		return Identifier{}, fmt.Errorf("invalid migration directory name %q: empty name", directoryName)
	}

	version, err := strconv.ParseInt(versionPart, 10, 64)
	if err != nil {
		return Identifier{}, fmt.Errorf("invalid migration directory name %q: version is not a number: %w", directoryName, err)
	}
	if version < 0 {
		return Identifier{}, fmt.Errorf("invalid migration directory name %q: version must not be negative", directoryName)
	}

	return Identifier{Version: version, Name: name}, nil
}

// DirectoryName renders the canonical on-disk directory name for the
// identifier, zero-padding the version to four digits.
func (i Identifier) DirectoryName() string {
	return fmt.Sprintf("M%04d_%s", i.Version, i.Name)
}

func (i Identifier) String() string {
	return i.DirectoryName()
}
