package datapackage

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed profile/data-package.json
var profileJSON []byte

const profileURL = "https://specs.frictionlessdata.io/schemas/data-package.json"

var (
	profile = compileProfile()
	printer = message.NewPrinter(language.English)
)

func compileProfile() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(profileJSON))
	if err != nil {
		panic(fmt.Sprintf("datapackage: decoding profile: %v", err))
	}
	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft4)
	c.AssertFormat()
	if err := c.AddResource(profileURL, doc); err != nil {
		panic(fmt.Sprintf("datapackage: loading profile: %v", err))
	}
	return c.MustCompile(profileURL)
}

// ValidationError is a single defect found in a descriptor.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks p against the Data Package profile and returns every
// defect found. A valid package yields no errors.
func Validate(p *Package) []error {
	if p == nil {
		return []error{&ValidationError{Field: "package", Message: "descriptor is nil"}}
	}

	data, err := p.Encode()
	if err != nil {
		return []error{&ValidationError{Field: "package", Message: err.Error()}}
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return []error{&ValidationError{Field: "package", Message: err.Error()}}
	}

	var errs []error
	if err := profile.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if !errors.As(err, &verr) {
			return []error{&ValidationError{Field: "package", Message: err.Error()}}
		}
		errs = appendLeaves(errs, verr)
	}

	// Rules the profile leaves open.
	if p.Profile != PackageProfile {
		errs = append(errs, &ValidationError{Field: "profile", Message: fmt.Sprintf("must be %q, got %q", PackageProfile, p.Profile)})
	}
	seen := make(map[string]bool, len(p.Resources))
	for i, r := range p.Resources {
		if r.Profile != ResourceProfile {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("resources[%d].profile", i),
				Message: fmt.Sprintf("must be %q, got %q", ResourceProfile, r.Profile),
			})
		}
		if seen[r.Name] {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("resources[%d].name", i),
				Message: fmt.Sprintf("duplicate resource name %q", r.Name),
			})
		}
		seen[r.Name] = true
	}
	return errs
}

// appendLeaves flattens the schema error tree into one error per failed
// keyword.
func appendLeaves(errs []error, e *jsonschema.ValidationError) []error {
	if len(e.Causes) > 0 {
		for _, c := range e.Causes {
			errs = appendLeaves(errs, c)
		}
		return errs
	}

	loc := e.InstanceLocation
	if req, ok := e.ErrorKind.(*kind.Required); ok && len(req.Missing) == 1 {
		loc = append(append([]string(nil), loc...), req.Missing[0])
	}
	return append(errs, &ValidationError{
		Field:   fieldPath(loc),
		Message: e.ErrorKind.LocalizedString(printer),
	})
}

// fieldPath renders an instance location as contributors[0].email.
func fieldPath(loc []string) string {
	if len(loc) == 0 {
		return "package"
	}
	var b strings.Builder
	for _, tok := range loc {
		if isIndex(tok) {
			fmt.Fprintf(&b, "[%s]", tok)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(tok)
	}
	return b.String()
}

func isIndex(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
