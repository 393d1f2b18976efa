// Package grpcrc is a gRPC binding for the runtime.Client contract,
// modeled on the teacher's servo gRPC controller: a hand-written
// ServiceDesc wired to structpb.Struct request/response payloads, so
// the table-operation contract's polymorphic key/data tuples cross the
// wire without hand-authored protoc-gen-go output.
package grpcrc

import (
	"encoding/base64"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/n0remac/sfu-control-plane/internal/runtime"
)

// structpb.NewValue already base64-encodes []byte, but we do it
// explicitly so the wire shape doesn't depend on that implementation
// detail and decodes predictably as a string, not a number array.
func bytesToWire(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func bytesFromWire(v interface{}) []byte {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

// encodeEntry flattens an Entry into a Struct: {"match": [...], "action": {...}}.
func encodeEntry(e runtime.Entry) (*structpb.Struct, error) {
	matchList, err := encodeKeyFields(e.Match.Fields)
	if err != nil {
		return nil, err
	}
	actionFields, err := encodeDataFields(e.Action.Fields)
	if err != nil {
		return nil, err
	}
	action, err := structpb.NewStruct(map[string]interface{}{
		"name":   e.Action.Name,
		"fields": actionFields,
	})
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]interface{}{
		"match":  matchList,
		"action": action.AsMap(),
	})
}

func decodeEntry(s *structpb.Struct) (runtime.Entry, error) {
	m := s.AsMap()
	matchRaw, _ := m["match"].([]interface{})
	fields, err := decodeKeyFields(matchRaw)
	if err != nil {
		return runtime.Entry{}, err
	}
	actionRaw, _ := m["action"].(map[string]interface{})
	name, _ := actionRaw["name"].(string)
	dataRaw, _ := actionRaw["fields"].([]interface{})
	dataFields, err := decodeDataFields(dataRaw)
	if err != nil {
		return runtime.Entry{}, err
	}
	return runtime.Entry{
		Match:  runtime.Match{Fields: fields},
		Action: runtime.Action{Name: name, Fields: dataFields},
	}, nil
}

func encodeMatch(m runtime.Match) (*structpb.Struct, error) {
	list, err := encodeKeyFields(m.Fields)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]interface{}{"match": list})
}

func decodeMatch(s *structpb.Struct) (runtime.Match, error) {
	m := s.AsMap()
	matchRaw, _ := m["match"].([]interface{})
	fields, err := decodeKeyFields(matchRaw)
	if err != nil {
		return runtime.Match{}, err
	}
	return runtime.Match{Fields: fields}, nil
}

func encodeKeyFields(fields []runtime.KeyField) ([]interface{}, error) {
	out := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		switch v := f.(type) {
		case runtime.ExactKey:
			out = append(out, map[string]interface{}{"kind": "exact", "name": v.Name, "value": bytesToWire(v.Value)})
		case runtime.TernaryKey:
			out = append(out, map[string]interface{}{"kind": "ternary", "name": v.Name, "value": bytesToWire(v.Value), "mask": bytesToWire(v.Mask)})
		case runtime.LPMKey:
			out = append(out, map[string]interface{}{"kind": "lpm", "name": v.Name, "value": bytesToWire(v.Value), "prefix": v.Prefix})
		case runtime.RangeKey:
			out = append(out, map[string]interface{}{"kind": "range", "name": v.Name, "low": bytesToWire(v.Low), "hi": bytesToWire(v.Hi)})
		case runtime.BoolKey:
			out = append(out, map[string]interface{}{"kind": "bool", "name": v.Name, "value": v.Value})
		default:
			return nil, fmt.Errorf("%w: unknown key field type %T", runtime.ErrTypeMismatch, f)
		}
	}
	return out, nil
}

func decodeKeyFields(raw []interface{}) ([]runtime.KeyField, error) {
	out := make([]runtime.KeyField, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: key field is not an object", runtime.ErrTypeMismatch)
		}
		name, _ := m["name"].(string)
		switch m["kind"] {
		case "exact":
			out = append(out, runtime.ExactKey{Name: name, Value: bytesFromWire(m["value"])})
		case "ternary":
			out = append(out, runtime.TernaryKey{Name: name, Value: bytesFromWire(m["value"]), Mask: bytesFromWire(m["mask"])})
		case "lpm":
			prefix, _ := m["prefix"].(float64)
			out = append(out, runtime.LPMKey{Name: name, Value: bytesFromWire(m["value"]), Prefix: int(prefix)})
		case "range":
			out = append(out, runtime.RangeKey{Name: name, Low: bytesFromWire(m["low"]), Hi: bytesFromWire(m["hi"])})
		case "bool":
			b, _ := m["value"].(bool)
			out = append(out, runtime.BoolKey{Name: name, Value: b})
		default:
			return nil, fmt.Errorf("%w: unknown key kind %v", runtime.ErrTypeMismatch, m["kind"])
		}
	}
	return out, nil
}

func encodeDataFields(fields []runtime.DataField) ([]interface{}, error) {
	out := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		switch v := f.(type) {
		case runtime.IntData:
			out = append(out, map[string]interface{}{"kind": "int", "name": v.Name, "value": float64(v.Value)})
		case runtime.BoolData:
			out = append(out, map[string]interface{}{"kind": "bool", "name": v.Name, "value": v.Value})
		case runtime.StrData:
			out = append(out, map[string]interface{}{"kind": "str", "name": v.Name, "value": v.Value})
		case runtime.BytesData:
			out = append(out, map[string]interface{}{"kind": "bytes", "name": v.Name, "value": bytesToWire(v.Value)})
		case runtime.IntArrayData:
			out = append(out, map[string]interface{}{"kind": "int_array", "name": v.Name, "value": uint64sToFloat64s(v.Value)})
		case runtime.BoolArrayData:
			out = append(out, map[string]interface{}{"kind": "bool_array", "name": v.Name, "value": v.Value})
		case runtime.FetchData:
			out = append(out, map[string]interface{}{"kind": "fetch", "name": v.Name})
		default:
			return nil, fmt.Errorf("%w: unknown data field type %T", runtime.ErrTypeMismatch, f)
		}
	}
	return out, nil
}

func decodeDataFields(raw []interface{}) ([]runtime.DataField, error) {
	out := make([]runtime.DataField, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: data field is not an object", runtime.ErrTypeMismatch)
		}
		name, _ := m["name"].(string)
		switch m["kind"] {
		case "int":
			f, _ := m["value"].(float64)
			out = append(out, runtime.IntData{Name: name, Value: uint64(f)})
		case "bool":
			b, _ := m["value"].(bool)
			out = append(out, runtime.BoolData{Name: name, Value: b})
		case "str":
			s, _ := m["value"].(string)
			out = append(out, runtime.StrData{Name: name, Value: s})
		case "bytes":
			out = append(out, runtime.BytesData{Name: name, Value: bytesFromWire(m["value"])})
		case "int_array":
			arr, _ := m["value"].([]interface{})
			vals := make([]uint64, len(arr))
			for i, a := range arr {
				f, _ := a.(float64)
				vals[i] = uint64(f)
			}
			out = append(out, runtime.IntArrayData{Name: name, Value: vals})
		case "bool_array":
			arr, _ := m["value"].([]interface{})
			vals := make([]bool, len(arr))
			for i, a := range arr {
				vals[i], _ = a.(bool)
			}
			out = append(out, runtime.BoolArrayData{Name: name, Value: vals})
		case "fetch":
			out = append(out, runtime.FetchData{Name: name})
		default:
			return nil, fmt.Errorf("%w: unknown data kind %v", runtime.ErrTypeMismatch, m["kind"])
		}
	}
	return out, nil
}

func uint64sToFloat64s(v []uint64) []interface{} {
	out := make([]interface{}, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
