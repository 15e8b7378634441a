package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// SanitizeUnknownFields drops keys outside the contact schema and removes
// null/empty values so a slightly-off response can still validate. The
// response is an untyped map at this boundary; only known, well-formed
// fields make it inward.
func SanitizeUnknownFields(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	allowed := map[string]struct{}{
		"name": {}, "company": {}, "job_title": {}, "phone": {}, "mobile": {},
		"email": {}, "address": {}, "website": {}, "notes": {}, "confidence": {},
	}

	var dropped []string
	for k, v := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
			continue
		}
		switch t := v.(type) {
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		case string:
			if k == "confidence" {
				// string-typed confidence never validates; drop it
				delete(m, k)
				dropped = append(dropped, k+"(type)")
				continue
			}
			if len(bytes.TrimSpace([]byte(t))) == 0 {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			}
		case float64:
			if k != "confidence" {
				// model sometimes returns numbers for text fields
				m[k] = fmt.Sprintf("%v", t)
			}
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, err
	}
	return out, dropped, nil
}
