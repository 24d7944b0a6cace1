package frame

import (
	"fmt"
	"reflect"

	"github.com/lookatitude/beluga-ai/internal/jsonutil"
)

// payloadPrototypes maps a frame Type to a representative zero value of its
// expected Data payload, registered by the package that owns the payload
// type (avoiding an import cycle back into frame). nil means "any payload
// accepted" (system/control frames carrying no data, or types whose payload
// shape is a library type frame intentionally doesn't depend on).
var payloadPrototypes = map[Type]any{}

// RegisterPayload declares the Go type carried by t's Data field, used by
// ValidatePayload when simulflow.frame.schema-checking is enabled (spec §6).
// Call from an init() in the package that owns the payload type.
func RegisterPayload(t Type, prototype any) {
	payloadPrototypes[t] = prototype
}

// Schema returns the JSON-Schema-shaped description of t's registered
// payload type, or nil if none is registered.
func Schema(t Type) map[string]any {
	proto, ok := payloadPrototypes[t]
	if !ok || proto == nil {
		return nil
	}
	return jsonutil.GenerateSchema(proto)
}

// ValidatePayload checks f.Data's concrete type against the payload type
// registered for f.Type via RegisterPayload. It is a structural check (type
// identity), not full JSON Schema validation against Schema's output;
// enabled only when config.PipelineConfig.SchemaChecking is set (spec §6).
func ValidatePayload(f Frame) error {
	proto, ok := payloadPrototypes[f.Type]
	if !ok || proto == nil {
		return nil
	}
	want := reflect.TypeOf(proto)
	got := reflect.TypeOf(f.Data)
	if got != want {
		return fmt.Errorf("frame: %s payload: want %s, got %s", f.Type, want, got)
	}
	return nil
}
