package halyard

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	log "github.com/charmbracelet/log"
)

// secretsFile is the per-directory secrets file name.
const secretsFile = "secrets.yaml"

// Secrets resolves !secret references. A lookup walks upward from the
// requesting file's directory to the configured root, returning the first
// match from each directory's secrets.yaml; closer directories shadow
// farther ones. Loaded files are cached for the lifetime of the instance.
//
// A Secrets instance is safe to reuse across sequential loads but is not
// synchronized for concurrent use.
type Secrets struct {
	configDir string
	cache     map[string]map[string]string
}

// NewSecrets creates a secret store rooted at configDir. The ancestor walk
// never leaves configDir.
func NewSecrets(configDir string) *Secrets {
	return &Secrets{
		configDir: filepath.Clean(configDir),
		cache:     make(map[string]map[string]string),
	}
}

// Get returns the value of the named secret for the file at requesterPath.
// It fails with ErrSecretNotDefined when the walk exits the root without a
// match, and with ErrMalformedSecrets when a secrets.yaml on the way is not
// a mapping.
func (s *Secrets) Get(requesterPath, name string) (string, error) {
	dir := filepath.Dir(filepath.Clean(requesterPath))
	for s.contains(dir) {
		secrets, err := s.loadSecrets(dir)
		if err != nil {
			return "", err
		}
		if value, ok := secrets[name]; ok {
			log.Debug("secret retrieved", "secret", name, "folder", dir)
			return value, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%w: %s", ErrSecretNotDefined, name)
}

// contains reports whether dir is the config root or a descendant of it.
func (s *Secrets) contains(dir string) bool {
	rel, err := filepath.Rel(s.configDir, dir)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// loadSecrets loads and caches dir's secrets.yaml. A missing file yields an
// empty secret set. A "logger" key is consumed as a logging-level directive
// before the set is cached.
func (s *Secrets) loadSecrets(dir string) (map[string]string, error) {
	path := filepath.Join(dir, secretsFile)
	if cached, ok := s.cache[path]; ok {
		return cached, nil
	}

	log.Debug("loading secrets", "path", path)
	loaded, err := NewLoader().loadFile(path, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			secrets := make(map[string]string)
			s.cache[path] = secrets
			return secrets, nil
		}
		return nil, err
	}

	mapping, ok := loaded.(*Mapping)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrMalformedSecrets)
	}

	if v, ok := mapping.Get("logger"); ok {
		level := strings.ToLower(scalarString(v))
		if level == "debug" {
			log.SetLevel(log.DebugLevel)
		} else {
			log.Error("error in secrets.yaml: 'logger: debug' expected", "found", level)
		}
		mapping.Delete("logger")
	}

	secrets := make(map[string]string, mapping.Len())
	var convErr error
	mapping.Range(func(key string, value any) bool {
		switch value.(type) {
		case *Mapping, *Sequence:
			convErr = fmt.Errorf("%s: secret %q is not a scalar value", path, key)
			return false
		}
		secrets[key] = scalarString(value)
		return true
	})
	if convErr != nil {
		return nil, convErr
	}

	s.cache[path] = secrets
	return secrets, nil
}
