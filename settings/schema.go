package settings

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema describes the settings document for editor validation.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		// Profiles are tagged variants; only the matching section is set.
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(&Settings{})
	s.Title = "latexext settings"
	return s
}

// SchemaJSON returns Schema() as indented JSON.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}
