package connection

import (
	"strings"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/kzaag/cqlengine/cqltypes"
	"github.com/pkg/errors"
)

// Positional rewrites the :N placeholders of cql into ? markers and returns
// the matching arguments in order. Placeholders inside string literals and
// quoted identifiers are left alone.
func Positional(cql string, params map[string]interface{}) (string, []interface{}, error) {
	var (
		b     strings.Builder
		args  []interface{}
		quote byte
	)
	b.Grow(len(cql))
	for i := 0; i < len(cql); i++ {
		c := cql[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			b.WriteByte(c)
			continue
		}
		switch {
		case c == '\'' || c == '"':
			quote = c
		case c == ':' && i+1 < len(cql) && isDigit(cql[i+1]):
			j := i + 1
			for j < len(cql) && isDigit(cql[j]) {
				j++
			}
			key := cql[i+1 : j]
			v, ok := params[key]
			if !ok {
				return "", nil, errors.Errorf("no value bound for :%s", key)
			}
			args = append(args, DriverValue(v))
			b.WriteByte('?')
			i = j - 1
			continue
		}
		b.WriteByte(c)
	}
	return b.String(), args, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// DriverValue converts the cqltypes wrappers into values gocql can marshal.
func DriverValue(v interface{}) interface{} {
	switch t := v.(type) {
	case cqltypes.SetValue:
		return driverSlice(t.Items())
	case cqltypes.ListValue:
		return driverSlice(t)
	case cqltypes.MapValue:
		ret := make(map[interface{}]interface{}, len(t))
		for k, e := range t {
			ret[DriverValue(k)] = DriverValue(e)
		}
		return ret
	case cqltypes.Blob:
		return []byte(t)
	case uuid.UUID:
		return gocql.UUID(t)
	}
	return v
}

func driverSlice(vs []interface{}) []interface{} {
	ret := make([]interface{}, len(vs))
	for i, e := range vs {
		ret[i] = DriverValue(e)
	}
	return ret
}
