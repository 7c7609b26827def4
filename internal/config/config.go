// Package config resolves the daemon's runtime settings — host, port,
// log directory, and sample frequency — from an optional JSON config
// file plus environment overrides. It is grounded on the teacher's
// config.Load/config.Resolve pair (internal/config/config.go,
// resolve.go), generalized from the teacher's logs/mcpserver/telemetry
// schema down to the four knobs this spec's daemon actually has.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/7c/pypm/internal/protocol"
)

// Raw is the shape of pypm.config.json. Every field is optional; a zero
// value means "use the default".
type Raw struct {
	Host         string  `json:"host"`
	Port         int     `json:"port"`
	LogDir       string  `json:"logdir"`
	LogFrequency float64 `json:"log_frequency"`
}

// LoadResult carries the parsed config plus where it came from, for the
// startup banner/log line.
type LoadResult struct {
	Raw    *Raw
	Path   string // file path used, empty if none
	Source string // "found", "--config flag", ""
}

// Resolved holds the fully resolved runtime configuration the Supervisor
// needs to start.
type Resolved struct {
	Host         string
	Port         int
	LogDir       string
	LogFrequency float64
}

const (
	defaultHost         = "127.0.0.1"
	defaultPort         = 9001
	defaultLogFrequency = 60.0
)

// Load searches for the config file and parses it. Search order:
// configFlag (if set), then <pypmHome>/pypm.config.json. If configFlag is
// set and the file doesn't exist, Load returns an error; if no file is
// found at all, Load returns an empty LoadResult (all defaults).
func Load(pypmHome, configFlag string) (*LoadResult, error) {
	if configFlag != "" {
		data, err := os.ReadFile(configFlag)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configFlag)
		}
		if err != nil {
			return nil, fmt.Errorf("config file not readable: %s - %w", configFlag, err)
		}
		var raw Raw
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%s: invalid JSON - %w", configFlag, err)
		}
		return &LoadResult{Raw: &raw, Path: configFlag, Source: "--config flag"}, nil
	}

	path := filepath.Join(pypmHome, "pypm.config.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &LoadResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config file not readable: %s - %w", path, err)
	}
	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: invalid JSON - %w", path, err)
	}
	return &LoadResult{Raw: &raw, Path: path, Source: "found"}, nil
}

// Resolve layers defaults under the loaded file, then PYPM_HOME-adjacent
// environment overrides (PYPM_HOST, PYPM_PORT) on top, returning
// resolution warnings that should be logged, never treated as fatal.
func Resolve(raw *Raw, pypmHome string) (*Resolved, []string) {
	var warnings []string

	r := &Resolved{
		Host:         defaultHost,
		Port:         defaultPort,
		LogDir:       protocol.DefaultLogDir(),
		LogFrequency: defaultLogFrequency,
	}
	if pypmHome != "" {
		r.LogDir = filepath.Join(pypmHome, "logs")
	}

	if raw != nil {
		if raw.Host != "" {
			r.Host = raw.Host
		}
		if raw.Port != 0 {
			r.Port = raw.Port
		}
		if raw.LogDir != "" {
			r.LogDir = raw.LogDir
		}
		if raw.LogFrequency != 0 {
			r.LogFrequency = raw.LogFrequency
		}
	}

	if v := os.Getenv("PYPM_HOST"); v != "" {
		r.Host = v
	}
	if v := os.Getenv("PYPM_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil && port > 0 && port <= 65535 {
			r.Port = port
		} else {
			warnings = append(warnings, fmt.Sprintf("PYPM_PORT %q ignored: not a valid port", v))
		}
	}

	if r.Port < 1 || r.Port > 65535 {
		warnings = append(warnings, fmt.Sprintf("port %d out of range, using default %d", r.Port, defaultPort))
		r.Port = defaultPort
	}
	if r.LogFrequency <= 0 {
		warnings = append(warnings, fmt.Sprintf("log_frequency %v invalid, using default %v", r.LogFrequency, defaultLogFrequency))
		r.LogFrequency = defaultLogFrequency
	}

	return r, warnings
}
