package services

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const questionSchemaURL = "schema://generated-question.json"

const questionSchemaJSON = `{
  "type": "object",
  "required": ["text", "options", "answerKey"],
  "properties": {
    "text": {"type": "string", "minLength": 1},
    "options": {
      "type": "array",
      "minItems": 4,
      "maxItems": 4,
      "uniqueItems": true,
      "items": {"type": "string", "minLength": 1}
    },
    "answerKey": {"type": "string", "minLength": 1},
    "difficulty": {"type": "string", "enum": ["easy", "medium", "hard"]}
  }
}`

var (
	questionSchemaOnce sync.Once
	questionSchema     *jsonschema.Schema
	questionSchemaErr  error
)

func compiledQuestionSchema() (*jsonschema.Schema, error) {
	questionSchemaOnce.Do(func() {
		def, err := jsonschema.UnmarshalJSON(strings.NewReader(questionSchemaJSON))
		if err != nil {
			questionSchemaErr = fmt.Errorf("parse question schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(questionSchemaURL, def); err != nil {
			questionSchemaErr = fmt.Errorf("add question schema: %w", err)
			return
		}
		questionSchema, questionSchemaErr = c.Compile(questionSchemaURL)
	})
	return questionSchema, questionSchemaErr
}

// validateGeneratedQuestion checks one decoded element of the model's array.
// Schema rules cover shape; membership of the answer key is checked here.
func validateGeneratedQuestion(item any) error {
	schema, err := compiledQuestionSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(item); err != nil {
		return err
	}

	obj := item.(map[string]any)
	key := obj["answerKey"].(string)
	for _, opt := range obj["options"].([]any) {
		if opt.(string) == key {
			return nil
		}
	}
	return fmt.Errorf("answerKey %q is not one of the options", key)
}
