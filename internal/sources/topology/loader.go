package topology

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of topology.yaml
type Loader struct {
	filePath string
}

// NewLoader creates a new topology loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Path returns the file the loader reads
func (l *Loader) Path() string {
	return l.filePath
}

// Load reads and parses the topology file
func (l *Loader) Load() (*File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read topology file: %w", err)
	}

	data = expandVariables(data)

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse topology yaml: %w", err)
	}

	return &file, nil
}

var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandVariables replaces ${NAME} with the environment value of NAME
// Example: ${ZONE_A} -> "zone-a", unset variables expand to ""
func expandVariables(data []byte) []byte {
	return variablePattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := variablePattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}
