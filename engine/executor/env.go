package executor

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
)

// EnvMap maps environment variable names to values.
type EnvMap map[string]string

// LoadEnvFile reads a dotenv file. A missing file yields an empty map.
func LoadEnvFile(path string) (EnvMap, error) {
	if path == "" {
		return EnvMap{}, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return EnvMap{}, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return EnvMap(values), nil
}

// EnvFromList parses KEY=VALUE pairs as returned by os.Environ.
func EnvFromList(list []string) EnvMap {
	env := make(EnvMap, len(list))
	for _, kv := range list {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// Merge returns a new map where values from other override e.
func (e EnvMap) Merge(other EnvMap) (EnvMap, error) {
	env := make(EnvMap, len(e)+len(other))
	if err := mergo.Merge(&env, e, mergo.WithOverride); err != nil {
		return nil, err
	}
	if err := mergo.Merge(&env, other, mergo.WithOverride); err != nil {
		return nil, err
	}
	return env, nil
}

// List renders the map as sorted KEY=VALUE pairs.
func (e EnvMap) List() []string {
	out := make([]string, 0, len(e))
	for k, v := range e {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// ChildEnv returns the process environment with the dotenv file applied on
// top, so file values win over inherited ones.
func ChildEnv(envFile string) ([]string, error) {
	fileEnv, err := LoadEnvFile(envFile)
	if err != nil {
		return nil, err
	}
	merged, err := EnvFromList(os.Environ()).Merge(fileEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to merge environment: %w", err)
	}
	return merged.List(), nil
}
