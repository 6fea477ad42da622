package transmission

import (
	"encoding/json"
	"fmt"
)

// StatsSnapshot holds the raw session-stats arguments fetched on one
// tick. It is transient: resolved during emission and then discarded.
type StatsSnapshot map[string]json.RawMessage

// FieldResolver extracts a catalog metric from a snapshot, hiding the
// payload-shape differences between daemon RPC versions. A missing key
// is never substituted with a default; it returns a SchemaError.
type FieldResolver interface {
	Resolve(snap StatsSnapshot, metric string, category Category) (float64, error)
}

// modernSchemaVersion is the first RPC version where general metrics
// are top-level attributes and the cumulative/current groups live under
// dedicated sub-objects.
const modernSchemaVersion = 14

// ResolverFor selects the resolver strategy for a probed RPC version.
// The choice is made once per connection; call sites never branch on
// version themselves.
func ResolverFor(rpcVersion int) FieldResolver {
	if rpcVersion >= modernSchemaVersion {
		return modernResolver{}
	}
	return legacyResolver{}
}

// modernResolver reads the flat shape: general metrics at the top
// level, cumulative and current under "cumulative-stats" and
// "current-stats".
type modernResolver struct{}

func (modernResolver) Resolve(snap StatsSnapshot, metric string, category Category) (float64, error) {
	switch category {
	case Cumulative:
		return nestedField(snap, "cumulative-stats", metric)
	case Current:
		return nestedField(snap, "current-stats", metric)
	default:
		return scalarField(snap, metric)
	}
}

// legacyResolver reads the nested shape used by older daemons, where
// every group lives under a field map keyed by category name.
type legacyResolver struct{}

func (legacyResolver) Resolve(snap StatsSnapshot, metric string, category Category) (float64, error) {
	return nestedField(snap, string(category), metric)
}

// scalarField decodes a top-level numeric field.
func scalarField(snap StatsSnapshot, key string) (float64, error) {
	raw, ok := snap[key]
	if !ok {
		return 0, &SchemaError{Field: key, Detail: "field absent from session statistics"}
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, &SchemaError{Field: key, Detail: fmt.Sprintf("not numeric: %v", err)}
	}
	return v, nil
}

// nestedField decodes a numeric field inside a named sub-object.
func nestedField(snap StatsSnapshot, object, key string) (float64, error) {
	raw, ok := snap[object]
	if !ok {
		return 0, &SchemaError{Field: object, Detail: "group absent from session statistics"}
	}
	var group map[string]json.RawMessage
	if err := json.Unmarshal(raw, &group); err != nil {
		return 0, &SchemaError{Field: object, Detail: fmt.Sprintf("not an object: %v", err)}
	}
	inner, ok := group[key]
	if !ok {
		return 0, &SchemaError{Field: object + "." + key, Detail: "field absent from session statistics"}
	}
	var v float64
	if err := json.Unmarshal(inner, &v); err != nil {
		return 0, &SchemaError{Field: object + "." + key, Detail: fmt.Sprintf("not numeric: %v", err)}
	}
	return v, nil
}
