package ffigen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the manifest file emitted at the simulator root.
const ManifestName = "external_modules.json"

// ManifestPort is one resolved port record in the manifest.
type ManifestPort struct {
	Name      string `json:"name"`
	Direction string `json:"direction"`
	Width     int    `json:"width"`
	Signed    bool   `json:"signed"`
	Type      string `json:"type"`
}

// ManifestEntry is the authoritative description of one synthesized
// wrapper package. Written once after synthesis; consumed read-only by
// the glue emitter and the project assembly step.
type ManifestEntry struct {
	Module      string         `json:"module"`
	Entity      string         `json:"entity"`
	PackageID   string         `json:"package"`
	LibraryID   string         `json:"library"`
	WrapperType string         `json:"wrapper_type"`
	Artifact    string         `json:"artifact"`
	HasClock    bool           `json:"has_clock"`
	HasReset    bool           `json:"has_reset"`
	Ports       []ManifestPort `json:"ports"`
}

// Manifest aggregates every wrapper package of one generation run.
type Manifest struct {
	Entries []ManifestEntry `json:"modules"`

	byModule map[string]*ManifestEntry
}

func (m *Manifest) index() {
	m.byModule = make(map[string]*ManifestEntry, len(m.Entries))
	for i := range m.Entries {
		m.byModule[m.Entries[i].Module] = &m.Entries[i]
	}
}

// Add appends an entry.
func (m *Manifest) Add(e ManifestEntry) {
	m.Entries = append(m.Entries, e)
	m.byModule = nil
}

// Lookup returns the entry for the named external module. A reference
// to a module absent from the manifest is a generation-time error.
func (m *Manifest) Lookup(module string) (*ManifestEntry, error) {
	if m.byModule == nil {
		m.index()
	}
	e, ok := m.byModule[module]
	if !ok {
		return nil, fmt.Errorf("external module %q not present in manifest", module)
	}
	return e, nil
}

// LookupPort returns the named port record of the named module.
func (m *Manifest) LookupPort(module, port string) (*ManifestPort, error) {
	e, err := m.Lookup(module)
	if err != nil {
		return nil, err
	}
	for i := range e.Ports {
		if e.Ports[i].Name == port {
			return &e.Ports[i], nil
		}
	}
	return nil, fmt.Errorf("port %q of external module %q not present in manifest", port, module)
}

// Write serializes the manifest to dir/ManifestName and returns the path.
func (m *Manifest) Write(dir string) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// LoadManifest reads a manifest previously written by Write.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the generation workspace
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	m.index()
	return &m, nil
}
