package tlv

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/moov-io/bertlv"
)

// WriteStructFields inspects a struct and writes one report line per
// populated field to sb, as "    - <prefix>.<Field>: <value>".
//
// Byte slices honour the `fmt` tag ("ascii", "int", default hex). Integers
// tagged `fmt:"unix"` are rendered as UTC RFC 3339 timestamps. Zero strings,
// empty slices and nested structs are skipped; callers describe nested
// structs with their own prefix.
//
// Lines are joined with newlines without a trailing newline. If the builder
// is not empty, a newline is prepended to separate this block.
func WriteStructFields(sb *strings.Builder, prefix string, s interface{}) {
	val := reflect.ValueOf(s)

	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	var lines []string

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		if !fieldType.IsExported() {
			continue
		}

		switch {
		case field.Type() == reflect.TypeOf([]bertlv.TLV{}):
			lines = append(lines, formatUnknownField(prefix, field)...)

		case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Uint8:
			if line := formatByteSliceField(prefix, field, fieldType); line != "" {
				lines = append(lines, line)
			}

		default:
			if line := formatScalarField(prefix, field, fieldType); line != "" {
				lines = append(lines, line)
			}
		}
	}

	if len(lines) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.Join(lines, "\n"))
	}
}

func fieldLabel(prefix string, fieldType reflect.StructField) string {
	name := fieldType.Name
	if tlvTag := fieldType.Tag.Get("tlv"); tlvTag != "" {
		name = fmt.Sprintf("%s (%s)", name, tlvTag)
	}
	return prefix + "." + name
}

func formatByteSliceField(prefix string, field reflect.Value, fieldType reflect.StructField) string {
	if field.IsNil() || field.Len() == 0 {
		return ""
	}

	displayVal := formatByteValue(field.Bytes(), fieldType.Tag.Get("fmt"))
	return fmt.Sprintf("    - %s: %s", fieldLabel(prefix, fieldType), displayVal)
}

func formatScalarField(prefix string, field reflect.Value, fieldType reflect.StructField) string {
	var display string

	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := field.Int()
		if fieldType.Tag.Get("fmt") == "unix" {
			display = time.Unix(n, 0).UTC().Format(time.RFC3339)
		} else if s, ok := field.Interface().(fmt.Stringer); ok {
			display = s.String()
		} else {
			display = fmt.Sprintf("%d", n)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if s, ok := field.Interface().(fmt.Stringer); ok {
			display = s.String()
		} else {
			display = fmt.Sprintf("%d", field.Uint())
		}
	case reflect.Bool:
		display = fmt.Sprintf("%t", field.Bool())
	case reflect.String:
		if field.Len() == 0 {
			return ""
		}
		display = field.String()
	default:
		return ""
	}

	return fmt.Sprintf("    - %s: %s", fieldLabel(prefix, fieldType), display)
}

func formatUnknownField(prefix string, field reflect.Value) []string {
	if field.IsNil() || field.Len() == 0 {
		return nil
	}

	var lines []string
	tlvs := field.Interface().([]bertlv.TLV)
	for _, t := range tlvs {
		valStr := strings.ToUpper(hex.EncodeToString(t.Value))
		lines = append(lines, fmt.Sprintf("    - %s.Unknown Tag %s: %s", prefix, t.Tag, valStr))
	}
	return lines
}

func formatByteValue(data []byte, format string) string {
	switch format {
	case "ascii":
		return fmt.Sprintf("%X (%q)", data, MakeSafeASCII(data))
	case "int":
		var integer uint64
		for _, b := range data {
			integer = (integer << 8) | uint64(b)
		}
		return fmt.Sprintf("%X (Dec: %d)", data, integer)
	default:
		return strings.ToUpper(hex.EncodeToString(data))
	}
}

// MakeSafeASCII replaces every non-printable byte with '.'.
func MakeSafeASCII(data []byte) string {
	return strings.Map(func(r rune) rune {
		if r >= 32 && r <= 126 {
			return r
		}
		return '.'
	}, string(data))
}
