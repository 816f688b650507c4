// Package mirror stores copies of published manifests outside the remote
// store. Manifests are keyed <dataset>/<version>/datapackage.json.
package mirror

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// manifestFile is the object name under each dataset/version prefix.
const manifestFile = "datapackage.json"

// ErrManifestNotFound indicates no manifest is stored for a dataset version.
var ErrManifestNotFound = errors.New("manifest not found")

// manifestKey returns the slash-separated key of a manifest.
func manifestKey(dataset, version string) (string, error) {
	for _, part := range []string{dataset, version} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("invalid manifest key component %q", part)
		}
	}
	return path.Join(dataset, version, manifestFile), nil
}

func notFound(dataset, version string) error {
	return fmt.Errorf("%w: %s %s", ErrManifestNotFound, dataset, version)
}
