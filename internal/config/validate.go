package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaCUE string

// validateSchema unifies the YAML document with the embedded CUE schema and
// reports any conflicts with field paths.
func validateSchema(data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	file, err := cueyaml.Extract("config.yaml", data)
	if err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("build config document: %w", err)
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(); err != nil {
		return fmt.Errorf("config schema violation:\n%s", cueerrors.Details(err, nil))
	}
	return nil
}
