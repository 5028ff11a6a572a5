package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/satishbabariya/sqlstudio/runtime/client"
)

// buildPayload assembles a record from a JSON object followed by
// --set field=value and --null field flags, later flags winning.
// Auto-managed fields are dropped and reported.
func buildPayload(jsonBody string, sets, nulls []string) (client.Record, []string, error) {
	var rec client.Record
	if strings.TrimSpace(jsonBody) != "" {
		if err := json.Unmarshal([]byte(jsonBody), &rec); err != nil {
			return client.Record{}, nil, fmt.Errorf("invalid --json object: %w", err)
		}
	}

	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return client.Record{}, nil, fmt.Errorf("invalid --set %q, expected field=value", s)
		}
		rec.Set(name, value)
	}
	for _, n := range nulls {
		name := strings.TrimSpace(n)
		if name == "" {
			return client.Record{}, nil, fmt.Errorf("--null needs a field name")
		}
		rec.Set(name, nil)
	}

	var dropped []string
	for _, k := range rec.Keys() {
		if client.IsAutoField(k) {
			rec.Delete(k)
			dropped = append(dropped, k)
		}
	}
	if rec.Len() == 0 {
		return client.Record{}, dropped, fmt.Errorf("no fields to send; use --set, --null or --json")
	}
	return rec, dropped, nil
}

// parseRecord decodes a JSON object identifying an existing record.
func parseRecord(raw string) (client.Record, error) {
	var rec client.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return client.Record{}, fmt.Errorf("invalid --record object: %w", err)
	}
	return rec, nil
}
