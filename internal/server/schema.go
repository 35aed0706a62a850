package server

import (
	"errors"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const createSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["content"],
  "properties": {
    "content": {"type": "string", "minLength": 1, "pattern": "\\S"}
  }
}`

const resolveSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["is_resolved"],
  "properties": {
    "is_resolved": {"type": "boolean"}
  }
}`

type validator interface {
	Validate(v interface{}) error
}

type schemas struct {
	create  validator
	resolve validator
}

func mustCompileSchemas() *schemas {
	return &schemas{
		create:  jsonschema.MustCompileString("create.schema.json", createSchema),
		resolve: jsonschema.MustCompileString("resolve.schema.json", resolveSchema),
	}
}

// validationMessage reports the innermost schema failure.
func validationMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := strings.TrimPrefix(ve.InstanceLocation, "/")
	if loc == "" {
		return ve.Message
	}
	return loc + ": " + ve.Message
}
