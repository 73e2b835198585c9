package mcpserver

import (
	"encoding/json"
)

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	registryName   = "io.github.panbanda/metriculator"
	repositoryURL  = "https://github.com/panbanda/metriculator"
	imageRef       = "ghcr.io/panbanda/metriculator"

	// publisherMeta is the _meta key the registry reserves for
	// publisher-supplied data.
	publisherMeta = "io.modelcontextprotocol.registry/publisher-provided"
)

// Tool names shared by registerTools and the manifest.
const (
	toolScopeTree    = "scope_tree"
	toolScopeMetrics = "scope_metrics"
	toolScopeLinkage = "scope_linkage"
)

var toolNames = []string{toolScopeTree, toolScopeMetrics, toolScopeLinkage}

// Manifest is the registry's server.json document.
type Manifest struct {
	Schema      string                    `json:"$schema"`
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Version     string                    `json:"version"`
	Repository  map[string]string         `json:"repository,omitempty"`
	Packages    []ManifestPackage         `json:"packages,omitempty"`
	Meta        map[string]PublisherExtra `json:"_meta,omitempty"`
}

// ManifestPackage is one way of launching the server. Arguments are
// positional command-line values.
type ManifestPackage struct {
	RegistryType string              `json:"registryType"`
	Identifier   string              `json:"identifier"`
	Arguments    []map[string]string `json:"packageArguments,omitempty"`
	Transport    map[string]string   `json:"transport"`
}

// PublisherExtra lists what a client gets from the server without
// connecting to it.
type PublisherExtra struct {
	Tools     []string `json:"tools"`
	Languages []string `json:"languages"`
}

// NewManifest describes the release tagged version. The OCI image tag
// follows the version, so an empty version maps to 0.0.0.
func NewManifest(version string) Manifest {
	if version == "" {
		version = "0.0.0"
	}
	positional := func(v string) map[string]string {
		return map[string]string{"type": "positional", "value": v}
	}
	return Manifest{
		Schema:      manifestSchema,
		Name:        registryName,
		Description: "Scope trees, complexity and declaration linkage for C and C++",
		Version:     version,
		Repository:  map[string]string{"url": repositoryURL, "source": "github"},
		Packages: []ManifestPackage{{
			RegistryType: "oci",
			Identifier:   imageRef + ":" + version,
			Arguments:    []map[string]string{positional("mcp")},
			Transport:    map[string]string{"type": "stdio"},
		}},
		Meta: map[string]PublisherExtra{
			publisherMeta: {
				Tools:     append([]string(nil), toolNames...),
				Languages: []string{"c", "cpp"},
			},
		},
	}
}

// GenerateManifest encodes NewManifest(version) as indented JSON.
func GenerateManifest(version string) ([]byte, error) {
	return json.MarshalIndent(NewManifest(version), "", "  ")
}
