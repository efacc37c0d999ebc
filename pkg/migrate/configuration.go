package migrate

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// Configuration holds per-migration settings parsed from an optional
// migration.toml file inside the migration's directory. Missing file or
// missing keys fall back to running both directions inside a transaction.
type Configuration struct {
	UpRunInsideTransaction   bool
	DownRunInsideTransaction bool
}

// DefaultConfiguration is what a migration without a migration.toml gets.
func DefaultConfiguration() Configuration {
	return Configuration{
		UpRunInsideTransaction:   true,
		DownRunInsideTransaction: true,
	}
}

type configurationFile struct {
	Up struct {
		RunInsideTransaction *bool `toml:"run_inside_transaction"`
	} `toml:"up"`
	Down struct {
		RunInsideTransaction *bool `toml:"run_inside_transaction"`
	} `toml:"down"`
}

// ParseConfiguration parses migration.toml content. Keys that are absent
// keep their defaults.
func ParseConfiguration(content []byte) (Configuration, error) {
	var file configurationFile
	if err := toml.Unmarshal(content, &file); err != nil {
		return Configuration{}, fmt.Errorf("parsing migration configuration: %w", err)
	}

	configuration := DefaultConfiguration()
	if file.Up.RunInsideTransaction != nil {
		configuration.UpRunInsideTransaction = *file.Up.RunInsideTransaction
	}
	if file.Down.RunInsideTransaction != nil {
		configuration.DownRunInsideTransaction = *file.Down.RunInsideTransaction
	}
	return configuration, nil
}

// ConfigurationTemplate is the migration.toml written into freshly generated
// migration directories.
const ConfigurationTemplate = `[up]
run_inside_transaction = true

[down]
run_inside_transaction = true
`
