package config

import (
	"fmt"
	"os"
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
)

// EnvMap is a flat set of environment variables.
type EnvMap map[string]string

// NewEnvFromFile reads a dotenv file. A missing file yields an empty map.
func NewEnvFromFile(path string) (EnvMap, error) {
	if path == "" {
		return make(EnvMap), nil
	}
	envMap, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(EnvMap), nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return EnvMap(envMap), nil
}

// NewEnvFromOS captures the process environment.
func NewEnvFromOS() EnvMap {
	env := make(EnvMap)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Merge returns a new map holding e overridden by other.
func (e EnvMap) Merge(other EnvMap) (EnvMap, error) {
	env := make(EnvMap)
	if err := mergo.Merge(&env, e, mergo.WithOverride); err != nil {
		return nil, err
	}
	if err := mergo.Merge(&env, other, mergo.WithOverride); err != nil {
		return nil, err
	}
	return env, nil
}

// Lookup returns the trimmed value of key and whether it is set and non-blank.
func (e EnvMap) Lookup(key string) (string, bool) {
	v, ok := e[key]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
