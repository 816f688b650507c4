package zenodo

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// NextMajor returns the semantic version one major release after v.
func NextMajor(v string) (string, error) {
	sv, err := semver.NewVersion(v)
	if err != nil {
		return "", fmt.Errorf("parsing version %q: %w", v, err)
	}
	return sv.IncMajor().String(), nil
}

// NextVersionMetadata derives the metadata of a new version from the
// previous one. Version-specific identifiers are dropped and the version is
// bumped one major release, unless version is set.
func NextVersionMetadata(previous zs.Metadata, version string) (zs.Metadata, error) {
	md := previous.StripVersionFields()
	if version != "" {
		md.Version = version
		return md, nil
	}

	current := previous.Version
	if current == "" {
		current = zs.DefaultVersion
	}
	next, err := NextMajor(current)
	if err != nil {
		return zs.Metadata{}, err
	}
	md.Version = next
	return md, nil
}
