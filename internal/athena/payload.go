package athena

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// timestampKeys are the SDK fields that hold time.Time values. Only these are
// rewritten; every other string is returned as the service sent it.
var timestampKeys = map[string]bool{
	"SubmissionDateTime": true,
	"CompletionDateTime": true,
	"CreateTime":         true,
	"LastAccessTime":     true,
}

// payload converts an SDK output struct into a JSON-ready map. Nil fields are
// dropped rather than sent as null, the SDK's ResultMetadata is removed, and
// timestamps are rendered as RFC 3339 in UTC.
func payload(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var decoded map[string]any
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if decoded == nil {
		return map[string]any{}, nil
	}

	delete(decoded, "ResultMetadata")
	return normalize(decoded).(map[string]any), nil
}

func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, elem := range val {
			if elem == nil {
				delete(val, k)
				continue
			}
			if s, ok := elem.(string); ok && timestampKeys[k] {
				val[k] = utcTimestamp(s)
				continue
			}
			val[k] = normalize(elem)
		}
		return val
	case []any:
		for i, elem := range val {
			val[i] = normalize(elem)
		}
		return val
	default:
		return val
	}
}

func utcTimestamp(s string) string {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	return t.UTC().Format(time.RFC3339Nano)
}
