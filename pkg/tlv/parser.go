// Package tlv maps BER-TLV (Basic Encoding Rules - Tag-Length-Value) data onto
// Go structures using `tlv:"<tag>"` struct tags, and renders tagged structures
// into the line-oriented reports used across this module.
package tlv

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// Unmarshaler allows custom types to implement their own TLV parsing logic.
type Unmarshaler interface {
	UnmarshalTLV(data []byte) error
}

// Unmarshal parses raw BER-TLV data and maps it into a target Go struct.
func Unmarshal(data []byte, target interface{}) error {
	if len(data) == 0 {
		return UnmarshalFromPackets(nil, target)
	}
	packets, err := bertlv.Decode(data)
	if err != nil {
		return fmt.Errorf("bertlv decode failed: %w", err)
	}
	return UnmarshalFromPackets(packets, target)
}

// UnmarshalFromPackets maps pre-decoded packets onto the fields of target.
//
// Supported field types:
//   - []byte: raw value (constructed packets are re-encoded)
//   - uint8..uint64: big-endian unsigned integer, at most 8 bytes
//   - struct or *struct: nested template
//   - slices of any of the above: one element per occurrence of the tag
//
// Packets matched by no field are stored in a field named Unknown (or tagged
// `tlv:",unknown"`) of type []bertlv.TLV when present, and dropped otherwise.
func UnmarshalFromPackets(packets []bertlv.TLV, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer")
	}
	v = v.Elem()
	t := v.Type()

	consumed := make(map[int]bool)

	for i := 0; i < v.NumField(); i++ {
		fieldType := t.Field(i)
		tag := tagOf(fieldType)
		if tag == "" {
			continue
		}

		for idx, packet := range packets {
			if !strings.EqualFold(packet.Tag, tag) {
				continue
			}
			if err := mapPacketToField(packet, v.Field(i)); err != nil {
				return fmt.Errorf("field %s (%s): %w", fieldType.Name, tag, err)
			}
			consumed[idx] = true
		}
	}

	return handleUnknownFields(v, t, packets, consumed)
}

// tagOf returns the upper-case tag a field maps to, or "" when the field is
// untagged or collects unknown packets.
func tagOf(f reflect.StructField) string {
	cfg := f.Tag.Get("tlv")
	if cfg == "" || cfg == ",unknown" || f.Name == "Unknown" {
		return ""
	}
	return strings.ToUpper(strings.Split(cfg, ",")[0])
}

func mapPacketToField(packet bertlv.TLV, field reflect.Value) error {
	// Repeated tags grow the slice; []byte is a value, not a repetition.
	if field.Kind() == reflect.Slice && !isByteSlice(field) {
		elem := reflect.New(field.Type().Elem()).Elem()
		if err := decodeToValue(packet, elem); err != nil {
			return err
		}
		field.Set(reflect.Append(field, elem))
		return nil
	}

	return decodeToValue(packet, field)
}

func decodeToValue(packet bertlv.TLV, field reflect.Value) error {
	if field.CanAddr() {
		if u, ok := field.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalTLV(getPacketRawData(packet))
		}
	}

	switch {
	case isByteSlice(field):
		raw := getPacketRawData(packet)
		if len(raw) == 0 {
			field.SetBytes(nil)
			return nil
		}
		field.SetBytes(append([]byte(nil), raw...))
		return nil

	case isUnsigned(field):
		n, err := decodeUint(packet.Value, field.Type().Bits()/8)
		if err != nil {
			return err
		}
		field.SetUint(n)
		return nil

	case isStructOrPtrToStruct(field):
		target := getTargetField(field)
		if len(packet.TLVs) > 0 {
			return UnmarshalFromPackets(packet.TLVs, target.Interface())
		}
		return Unmarshal(packet.Value, target.Interface())
	}

	return fmt.Errorf("unsupported field kind %s", field.Kind())
}

// decodeUint reads a big-endian unsigned integer no wider than size bytes.
func decodeUint(data []byte, size int) (uint64, error) {
	if len(data) > size {
		return 0, fmt.Errorf("integer of %d bytes does not fit in %d bytes", len(data), size)
	}
	var n uint64
	for _, b := range data {
		n = n<<8 | uint64(b)
	}
	return n, nil
}

func handleUnknownFields(v reflect.Value, t reflect.Type, packets []bertlv.TLV, consumed map[int]bool) error {
	unknownField, found := findUnknownField(v, t)
	if !found {
		return nil
	}

	var leftovers []bertlv.TLV
	for idx, packet := range packets {
		if !consumed[idx] {
			leftovers = append(leftovers, packet)
		}
	}

	if len(leftovers) > 0 && unknownField.CanSet() {
		unknownField.Set(reflect.ValueOf(leftovers))
	}
	return nil
}

func findUnknownField(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	for i := 0; i < v.NumField(); i++ {
		f := t.Field(i)
		if f.Tag.Get("tlv") == ",unknown" || f.Name == "Unknown" {
			if f.Type == reflect.TypeOf([]bertlv.TLV{}) {
				return v.Field(i), true
			}
		}
	}
	return reflect.Value{}, false
}

func getPacketRawData(p bertlv.TLV) []byte {
	if len(p.TLVs) > 0 {
		if enc, err := bertlv.Encode(p.TLVs); err == nil {
			return enc
		}
	}
	return p.Value
}

func isByteSlice(v reflect.Value) bool {
	return v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8
}

func isUnsigned(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isStructOrPtrToStruct(v reflect.Value) bool {
	if v.Kind() == reflect.Struct {
		return true
	}
	return v.Kind() == reflect.Ptr && v.Type().Elem().Kind() == reflect.Struct
}

func getTargetField(field reflect.Value) reflect.Value {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return field
	}
	return field.Addr()
}

// EncodeUint returns n as a minimal big-endian byte string of at least one byte.
func EncodeUint(n uint64) []byte {
	var out []byte
	for n > 0 {
		out = append([]byte{byte(n)}, out...)
		n >>= 8
	}
	if len(out) == 0 {
		return []byte{0}
	}
	return out
}

// EncodeFixedUint returns n as a big-endian byte string of exactly size bytes.
func EncodeFixedUint(n uint64, size int) []byte {
	out := make([]byte, size)
	for i := size - 1; i >= 0; i-- {
		out[i] = byte(n)
		n >>= 8
	}
	return out
}
