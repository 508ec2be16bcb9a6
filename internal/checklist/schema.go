package checklist

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const itemsSchemaURL = "occ://checklist/items.json"

const itemsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["id", "text"],
    "properties": {
      "id": {"type": "string", "minLength": 1, "maxLength": 128},
      "text": {"type": "string", "minLength": 1},
      "subtext": {"type": "string"},
      "imageUrl": {"type": "string"},
      "important": {"type": "boolean"},
      "warning": {"type": "boolean"},
      "indent": {"type": "boolean"},
      "isDivider": {"type": "boolean"}
    }
  }
}`

var compiledItemsSchema = jsonschema.MustCompileString(itemsSchemaURL, itemsSchema)

// ParseItems validates a stored item definition and decodes it. Duplicate
// ids are rejected because the checked set is keyed by id.
func ParseItems(raw []byte) ([]Item, error) {
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode checklist items: %w", err)
	}
	if err := compiledItemsSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid checklist items: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode checklist items: %w", err)
	}

	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			return nil, fmt.Errorf("invalid checklist items: duplicate id %q", item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return items, nil
}
