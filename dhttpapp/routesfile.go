package dhttpapp

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/advdv/dhttp"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// FileSource reads endpoint descriptors from a YAML file holding a single
// `endpoints` list:
//
//	endpoints:
//	  - collection: users
//	    handler: get
//	    method: GET
//	    path: /users/:id
//
// Values may reference environment variables with ${VAR} or ${VAR:-default};
// write $$ for a literal dollar sign.
type FileSource struct {
	path string
}

// NewFileSource creates a descriptor source reading from the given path. The
// file is re-read on every Descriptors call, so reloads pick up edits.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the file the source reads from.
func (s *FileSource) Path() string { return s.path }

type routesFile struct {
	Endpoints []routesFileEndpoint `yaml:"endpoints"`
}

type routesFileEndpoint struct {
	Collection string `yaml:"collection"`
	Handler    string `yaml:"handler"`
	Method     string `yaml:"method"`
	Path       string `yaml:"path"`
}

// Descriptors implements [dhttp.DescriptorSource].
func (s *FileSource) Descriptors(context.Context) ([]dhttp.EndpointDescriptor, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "read routes file %s", s.path)
	}

	var f routesFile
	if err := yaml.Unmarshal([]byte(substituteEnvVars(string(data))), &f); err != nil {
		return nil, errors.Wrapf(err, "parse routes file %s", s.path)
	}

	descs := make([]dhttp.EndpointDescriptor, 0, len(f.Endpoints))
	for _, ep := range f.Endpoints {
		descs = append(descs, dhttp.EndpointDescriptor{
			Collection: ep.Collection,
			Handler:    ep.Handler,
			Method:     ep.Method,
			Path:       ep.Path,
		})
	}

	return descs, nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment variable values.
func substituteEnvVars(content string) string {
	// Handle escaped dollar signs first
	content = strings.ReplaceAll(content, "$$", "\x00ESCAPED_DOLLAR\x00")

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		defaultValue := ""
		if len(submatches) >= 3 {
			defaultValue = submatches[2]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return defaultValue
	})

	// Restore escaped dollar signs
	return strings.ReplaceAll(result, "\x00ESCAPED_DOLLAR\x00", "$")
}

var _ dhttp.DescriptorSource = (*FileSource)(nil)
