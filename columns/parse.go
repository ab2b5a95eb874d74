package columns

import (
	"fmt"
	"strings"
)

// Parse builds a column from a CQL type such as "text" or
// "map<text, int>". opts apply to the outer column only.
func Parse(cqlType string, opts ...Option) (Column, error) {
	t := strings.ToLower(strings.TrimSpace(cqlType))
	if open := strings.IndexByte(t, '<'); open >= 0 {
		if !strings.HasSuffix(t, ">") {
			return nil, fmt.Errorf("malformed collection type %q", cqlType)
		}
		kind := strings.TrimSpace(t[:open])
		args := splitTypeArgs(t[open+1 : len(t)-1])
		switch kind {
		case "set", "list":
			if len(args) != 1 {
				return nil, fmt.Errorf("%s expects one element type, got %q", kind, cqlType)
			}
			elem, err := Parse(args[0])
			if err != nil {
				return nil, err
			}
			if kind == "set" {
				return NewSet(elem, opts...), nil
			}
			return NewList(elem, opts...), nil
		case "map":
			if len(args) != 2 {
				return nil, fmt.Errorf("map expects key and value types, got %q", cqlType)
			}
			key, err := Parse(args[0])
			if err != nil {
				return nil, err
			}
			val, err := Parse(args[1])
			if err != nil {
				return nil, err
			}
			return NewMap(key, val, opts...), nil
		}
		return nil, fmt.Errorf("unknown collection type %q", cqlType)
	}

	switch t {
	case "blob":
		return NewBytes(opts...), nil
	case "ascii":
		return NewAscii(opts...), nil
	case "text", "varchar":
		return NewText(opts...), nil
	case "int":
		return NewInteger(opts...), nil
	case "bigint":
		return NewBigInt(opts...), nil
	case "varint":
		return NewVarInt(opts...), nil
	case "counter":
		return NewCounter(opts...), nil
	case "timestamp":
		return NewDateTime(opts...), nil
	case "date":
		return NewDate(opts...), nil
	case "uuid":
		return NewUUID(opts...), nil
	case "timeuuid":
		return NewTimeUUID(opts...), nil
	case "boolean":
		return NewBoolean(opts...), nil
	case "double":
		return NewFloat(opts...), nil
	case "float":
		return NewSingleFloat(opts...), nil
	case "decimal":
		return NewDecimal(opts...), nil
	}
	return nil, fmt.Errorf("unknown column type %q", cqlType)
}

// splitTypeArgs splits on top level commas only.
func splitTypeArgs(s string) []string {
	var ret []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				ret = append(ret, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(ret, strings.TrimSpace(s[start:]))
}
