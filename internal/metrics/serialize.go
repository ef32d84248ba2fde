package metrics

import "encoding/json"

// MarshalJSON-equivalent helpers; kept as free functions rather than
// methods so Record stays a plain serializable value (§6: "Serialization
// format is not prescribed; JSON ... acceptable").

// ToJSON serializes rec to JSON.
func ToJSON(rec Record) ([]byte, error) {
	return json.MarshalIndent(rec, "", "  ")
}

// FromJSON deserializes rec from JSON produced by ToJSON.
func FromJSON(data []byte) (Record, error) {
	var rec Record
	err := json.Unmarshal(data, &rec)
	return rec, err
}
