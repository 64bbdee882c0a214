package repository

import "encoding/json"

// marshalJSONB encodes v for a JSONB bind parameter. The zero map/slice
// encodes as "{}"/"[]" rather than "null" so merge operators keep working.
func marshalJSONB(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		switch v.(type) {
		case []string, []bool:
			return []byte("[]"), nil
		default:
			return []byte("{}"), nil
		}
	}
	return raw, nil
}

// scanJSONB decodes a JSONB column into dst; NULL leaves dst untouched.
func scanJSONB(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
