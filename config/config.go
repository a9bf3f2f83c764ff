// Package config loads the two static deny-sets and the general-settings
// document at startup. All three are read once, before the drain loop
// starts, and never reloaded — see domain.StringSetIface and
// domain.GeneralSettings for the published, read-only shapes.
package config

import (
	"fmt"
	"net"
	"os"

	json "github.com/goccy/go-json"

	"github.com/hostwatch/edr-agent/domain"
)

// LoadBlockedCmds reads a JSON array of strings from path, keeping only
// non-empty entries. Mirrors the original loader's filtering of blank
// program names.
func LoadBlockedCmds(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading blocked-cmds file %q: %w", path, err)
	}

	var entries []string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parsing blocked-cmds JSON %q: %w", path, err)
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e != "" {
			out = append(out, e)
		}
	}
	return out, nil
}

// LoadBlockedIPs reads a JSON array of strings from path, keeping only the
// entries that parse as valid IPv4 addresses.
func LoadBlockedIPs(path string) ([]net.IP, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading blocked-ips file %q: %w", path, err)
	}

	var entries []string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parsing blocked-ips JSON %q: %w", path, err)
	}

	out := make([]net.IP, 0, len(entries))
	for _, e := range entries {
		ip := net.ParseIP(e)
		if ip == nil {
			continue
		}
		v4 := ip.To4()
		if v4 == nil {
			continue
		}
		out = append(out, v4)
	}
	return out, nil
}

// LoadGeneralSettings reads a flat JSON object of string values from path.
// Non-string values are skipped rather than rejected, since the document may
// carry keys this agent does not recognize.
func LoadGeneralSettings(path string) (domain.GeneralSettings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading general-settings file %q: %w", path, err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing general-settings JSON %q: %w", path, err)
	}

	out := make(domain.GeneralSettings, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out, nil
}
