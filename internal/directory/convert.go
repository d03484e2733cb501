package directory

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// generalizedTimeLayout is the fixed-width LDAP generalized-time format,
// always expressed in UTC with a literal Z suffix.
const generalizedTimeLayout = "20060102150405Z"

// Converter decodes the raw byte values of one LDAP attribute into its
// domain representation. The zero-length guard lives in the model layer:
// callers must not invoke Decode for attributes absent from an entry.
type Converter interface {
	// LDAPName is the wire-level attribute name, including any transfer
	// option suffix (e.g. ";binary").
	LDAPName() string
	Multivalued() bool
	Decode(values [][]byte) (any, error)
}

// EncodeTime renders a timestamp in the directory's generalized-time
// format, the encoding expected on the right-hand side of time-comparison
// filters.
func EncodeTime(t time.Time) string {
	return t.UTC().Format(generalizedTimeLayout)
}

type conv struct {
	name        string
	multivalued bool
}

func (c conv) LDAPName() string  { return c.name }
func (c conv) Multivalued() bool { return c.multivalued }

func (c conv) decodeError(err error) error {
	return &Error{Kind: KindDecode, Op: "decode " + c.name, Err: err}
}

// StringConverter decodes UTF-8 string attributes.
type StringConverter struct{ conv }

// String maps a single-valued string attribute.
func String(name string) StringConverter {
	return StringConverter{conv{name: name}}
}

// StringList maps a multi-valued string attribute.
func StringList(name string) StringConverter {
	return StringConverter{conv{name: name, multivalued: true}}
}

func (c StringConverter) Decode(values [][]byte) (any, error) {
	if c.multivalued {
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = string(v)
		}
		return out, nil
	}
	if len(values) == 0 {
		return nil, c.decodeError(errEmptyValues)
	}
	return string(values[0]), nil
}

// BoolConverter decodes the directory's TRUE/FALSE boolean syntax,
// case-insensitively. Any other token is a decode error carrying the
// offending value; there is no silent default.
type BoolConverter struct{ conv }

func Bool(name string) BoolConverter {
	return BoolConverter{conv{name: name}}
}

func (c BoolConverter) Decode(values [][]byte) (any, error) {
	if len(values) == 0 {
		return nil, c.decodeError(errEmptyValues)
	}
	switch s := string(values[0]); strings.ToUpper(s) {
	case "TRUE":
		return true, nil
	case "FALSE":
		return false, nil
	default:
		return nil, c.decodeError(fmt.Errorf("invalid boolean %q", s))
	}
}

// TimeConverter decodes generalized-time attributes into time.Time values.
type TimeConverter struct{ conv }

func Time(name string) TimeConverter {
	return TimeConverter{conv{name: name}}
}

func (c TimeConverter) Decode(values [][]byte) (any, error) {
	if len(values) == 0 {
		return nil, c.decodeError(errEmptyValues)
	}
	t, err := time.Parse(generalizedTimeLayout, string(values[0]))
	if err != nil {
		return nil, c.decodeError(err)
	}
	return t.UTC(), nil
}

// BinaryConverter decodes raw octet attributes into base64 strings for
// transport. The wire name carries the ";binary" transfer option so the
// server returns raw octets rather than a string encoding.
type BinaryConverter struct{ conv }

func Binary(name string) BinaryConverter {
	return BinaryConverter{conv{name: name + ";binary"}}
}

func BinaryList(name string) BinaryConverter {
	return BinaryConverter{conv{name: name + ";binary", multivalued: true}}
}

func (c BinaryConverter) Decode(values [][]byte) (any, error) {
	if c.multivalued {
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = base64.StdEncoding.EncodeToString(v)
		}
		return out, nil
	}
	if len(values) == 0 {
		return nil, c.decodeError(errEmptyValues)
	}
	return base64.StdEncoding.EncodeToString(values[0]), nil
}
