package cli

import (
	"os"

	"gopkg.in/yaml.v3"
)

// configFileName is read from the current working directory, mirroring the
// teacher's project-file convention (internal/loader's YAML frontmatter
// config, here hoisted to a whole-file project default instead of a
// per-model block).
const configFileName = "bqport.yaml"

// fileConfig holds the optional on-disk defaults for bqport's persistent
// flags. Any flag explicitly passed on the command line overrides these;
// fileConfig only changes a flag's default.
type fileConfig struct {
	RootPath           string            `yaml:"root_path"`
	Threads            int               `yaml:"threads"`
	Format             string            `yaml:"format"`
	Labels             map[string]string `yaml:"labels"`
	MaximumBytesBilled int64             `yaml:"maximum_bytes_billed"`
}

// loadConfig reads configFileName from the working directory. A missing
// file is not an error: most invocations carry no project file and rely
// entirely on flag defaults.
func loadConfig() (*fileConfig, error) {
	data, err := os.ReadFile(configFileName)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileConfig{}, nil
		}
		return nil, err
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// labelFlags renders cfg's label map back into repeatable key:value strings,
// the same shape the --label flag accepts, so a config-file default can
// seed the same StringArrayVar the flag populates.
func (cfg *fileConfig) labelFlags() []string {
	if len(cfg.Labels) == 0 {
		return nil
	}
	out := make([]string, 0, len(cfg.Labels))
	for k, v := range cfg.Labels {
		out = append(out, k+":"+v)
	}
	return out
}
