package store

import (
	"database/sql"
	"encoding/json"
)

// JSON-encoded list and map columns (artists.genres_json, tracks.extended_json,
// ...) are decoded here and nowhere else; the rest of the code only ever sees
// []string and map[string]string values.

func encodeStringList(values []string) any {
	if len(values) == 0 {
		return nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	return string(raw)
}

func decodeStringList(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw.String), &values); err != nil {
		return nil
	}
	return values
}

func encodeExtended(extended map[string]string) any {
	if len(extended) == 0 {
		return nil
	}
	raw, err := json.Marshal(extended)
	if err != nil {
		return nil
	}
	return string(raw)
}

func decodeExtended(raw sql.NullString) map[string]string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var extended map[string]string
	if err := json.Unmarshal([]byte(raw.String), &extended); err != nil {
		return nil
	}
	return extended
}
