package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pyworkflow/dispatch/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// extractCLIFlags collects the flags the user changed explicitly, keyed by
// config path, so unset flags never shadow YAML or environment values.
func extractCLIFlags(fs *pflag.FlagSet, flags map[string]any) {
	addFlag := func(flagName, key string, getter func(string) (any, error)) {
		if fs.Changed(flagName) {
			if value, err := getter(flagName); err == nil {
				flags[key] = value
			}
		}
	}

	getString := func(name string) (any, error) { return fs.GetString(name) }
	getBool := func(name string) (any, error) { return fs.GetBool(name) }
	getPolicy := func(name string) (any, error) {
		keepGoing, err := fs.GetBool(name)
		if err != nil {
			return nil, err
		}
		if keepGoing {
			return config.PolicyContinue, nil
		}
		return config.PolicyFailFast, nil
	}

	flagDefs := []struct {
		flagName string
		key      string
		getter   func(string) (any, error)
	}{
		{"manager", "manager.force", getString},
		{"source-dir", "paths.source", getString},
		{"tests-dir", "paths.tests", getString},
		{"keep-going", "run.policy", getPolicy},
		{"dry-run", "run.dry_run", getBool},
		{"env-file", "env_file", getString},
		{"cwd", "cwd", getString},

		{"log-level", "log.level", getString},
		{"log-json", "log.json", getBool},
		{"log-source", "log.source", getBool},
		{"log-file", "log.file", getString},
	}
	for _, def := range flagDefs {
		addFlag(def.flagName, def.key, def.getter)
	}
}

// resolveWorkDir picks the project directory from --cwd, then the
// environment, then the process working directory.
func resolveWorkDir(cmd *cobra.Command) (string, error) {
	dir, err := cmd.Flags().GetString("cwd")
	if err != nil {
		return "", fmt.Errorf("failed to get cwd flag: %w", err)
	}
	if dir == "" {
		dir = os.Getenv(config.GetEnvVarForConfigPath("cwd"))
	}
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to stat working directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("working directory %q is not a directory", dir)
	}
	return abs, nil
}

// resolveConfigFile returns the YAML path relative to workDir. A file named
// explicitly with --config must exist; the default one is optional.
func resolveConfigFile(cmd *cobra.Command, workDir string) (string, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", fmt.Errorf("failed to get config flag: %w", err)
	}
	if path == "" {
		return "", nil
	}
	path = inDir(workDir, path)
	if cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
	}
	return path, nil
}

// resolveEnvFile returns the absolute dotenv path, which must stay inside the
// project directory. An empty result means no dotenv file is applied.
func resolveEnvFile(envFile, workDir string) (string, error) {
	if envFile == "" {
		return "", nil
	}
	absPath := inDir(workDir, envFile)
	if !isPathWithinDirectory(absPath, workDir) {
		return "", fmt.Errorf("env file path '%s' is outside the project directory", envFile)
	}
	fileInfo, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return absPath, nil
		}
		return "", fmt.Errorf("failed to stat env file: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		return "", fmt.Errorf("env file path '%s' is not a regular file", envFile)
	}
	return absPath, nil
}

func inDir(dir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}

// isPathWithinDirectory checks if a given path is within the specified directory
func isPathWithinDirectory(path, dir string) bool {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(filepath.Clean(dir))
	if err != nil {
		return false
	}
	if !strings.HasSuffix(absDir, string(filepath.Separator)) {
		absDir += string(filepath.Separator)
	}
	return strings.HasPrefix(absPath, absDir) || absPath == strings.TrimSuffix(absDir, string(filepath.Separator))
}

// sourceKeyvals flattens config sources into sorted logger key/value pairs.
func sourceKeyvals(sources map[string]config.SourceType) []any {
	keys := make([]string, 0, len(sources))
	for k := range sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		out = append(out, k, string(sources[k]))
	}
	return out
}
