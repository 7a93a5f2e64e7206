// Package inventory builds the per-request host inventory handed to the runner.
package inventory

import (
	"fmt"
	"os"

	"github.com/psbridge/psbridge/internal/config"
	"gopkg.in/yaml.v3"
)

// Connection is the per-host record the runner uses to reach a target.
type Connection struct {
	Host       string `yaml:"ansible_host"`
	Connection string `yaml:"ansible_connection"`
	Transport  string `yaml:"ansible_winrm_transport"`
	Port       int    `yaml:"ansible_port"`
}

// Group is one inventory group: host name -> connection record.
type Group struct {
	Hosts map[string]Connection `yaml:"hosts"`
}

// Descriptor maps each target to its connection record. It is built fresh
// for every request and never mutated after Build returns.
type Descriptor struct {
	group string
	hosts map[string]Connection
}

// Builder applies a fixed connection template to a set of targets
type Builder struct {
	template config.InventoryConfig
}

// NewBuilder creates a builder for the given connection template
func NewBuilder(template config.InventoryConfig) *Builder {
	template.ApplyDefaults()
	return &Builder{template: template}
}

// Build returns one entry per unique target. Duplicates collapse.
func (b *Builder) Build(targets []string) *Descriptor {
	hosts := make(map[string]Connection, len(targets))
	for _, target := range targets {
		hosts[target] = Connection{
			Host:       target,
			Connection: b.template.Connection,
			Transport:  b.template.Transport,
			Port:       b.template.Port,
		}
	}
	return &Descriptor{group: b.template.Group, hosts: hosts}
}

// Len returns the number of unique hosts
func (d *Descriptor) Len() int {
	return len(d.hosts)
}

// Lookup returns the connection record for a target
func (d *Descriptor) Lookup(target string) (Connection, bool) {
	c, ok := d.hosts[target]
	return c, ok
}

// Document returns the YAML-serializable inventory: group -> hosts -> connection.
func (d *Descriptor) Document() map[string]Group {
	return map[string]Group{
		d.group: {Hosts: d.hosts},
	}
}

// Marshal encodes the inventory document as YAML
func (d *Descriptor) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(d.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal inventory: %w", err)
	}
	return data, nil
}

// Write externalizes the inventory to a uniquely named file in dir (the OS
// temp dir when empty). The returned cleanup removes the file and is safe to
// call more than once; callers defer it right after a nil error.
func (d *Descriptor) Write(dir string) (string, func(), error) {
	data, err := d.Marshal()
	if err != nil {
		return "", nil, err
	}

	f, err := os.CreateTemp(dir, "inventory-*.yml")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create inventory file: %w", err)
	}
	path := f.Name()
	cleanup := func() {
		_ = os.Remove(path)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write inventory file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close inventory file: %w", err)
	}

	return path, cleanup, nil
}
