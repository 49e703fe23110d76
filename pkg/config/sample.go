package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const sampleHeader = `# lucky-dog configuration
#
# Environment variable overrides: PORT, HOST, DB_NAME, API_TOKEN,
# LOG_LEVEL, SERVER_URL, MAX_WORKERS, CPU_USAGE_RATIO.
`

// Sample renders a commented sample configuration file with all
// defaults filled in. Used by "luckyd init".
func Sample() ([]byte, error) {
	cfg, err := Load("")
	if err != nil {
		return nil, fmt.Errorf("failed to build default configuration: %w", err)
	}

	body, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to render configuration: %w", err)
	}
	return append([]byte(sampleHeader), body...), nil
}
