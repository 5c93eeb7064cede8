// Package inventory loads the list of devices to audit.
package inventory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultSSHPort is used for devices that do not declare a port
const DefaultSSHPort = 22

// Device is a host reachable over SSH. Hostname is its identity.
type Device struct {
	Hostname string `yaml:"hostname" json:"hostname"`
	IP       string `yaml:"ip" json:"ip"`
	Port     int    `yaml:"port,omitempty" json:"port,omitempty"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

type document struct {
	Devices *[]Device `yaml:"devices"`
}

// Load reads an inventory file with a top-level `devices` list
func Load(path string) ([]Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory %s: %w", path, err)
	}
	devices, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse inventory %s: %w", path, err)
	}
	return devices, nil
}

// Parse decodes and validates an inventory document
func Parse(data []byte) ([]Device, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Devices == nil {
		return nil, fmt.Errorf("missing devices list")
	}

	devices := *doc.Devices
	seen := make(map[string]bool, len(devices))
	for i := range devices {
		d := &devices[i]
		if d.Hostname == "" {
			return nil, fmt.Errorf("device %d: hostname is required", i)
		}
		if d.IP == "" {
			return nil, fmt.Errorf("device %s: ip is required", d.Hostname)
		}
		if seen[d.Hostname] {
			return nil, fmt.Errorf("device %s: duplicate hostname", d.Hostname)
		}
		seen[d.Hostname] = true
		if d.Port == 0 {
			d.Port = DefaultSSHPort
		}
	}
	return devices, nil
}

// Find returns the device with the given hostname
func Find(devices []Device, hostname string) (Device, bool) {
	for _, d := range devices {
		if d.Hostname == hostname {
			return d, true
		}
	}
	return Device{}, false
}
