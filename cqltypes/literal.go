package cqltypes

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"gopkg.in/inf.v0"
)

// RenderLiteral renders v as a CQL literal fragment.
func RenderLiteral(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if t {
			return "true"
		}
		return "false"
	case string:
		return "'" + strings.Replace(t, "'", "''", -1) + "'"
	case int:
		return strconv.FormatInt(int64(t), 10)
	case int8:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint8:
		return strconv.FormatUint(uint64(t), 10)
	case uint16:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case *big.Int:
		return t.String()
	case *inf.Dec:
		return t.String()
	case Blob:
		return "0x" + hex.EncodeToString(t)
	case []byte:
		return "0x" + hex.EncodeToString(t)
	case gocql.UUID:
		return t.String()
	case uuid.UUID:
		return t.String()
	case time.Time:
		return strconv.FormatInt(t.UnixNano()/int64(time.Millisecond), 10)
	case SetValue:
		return renderSequence("{", "}", t.Items())
	case ListValue:
		return renderSequence("[", "]", t)
	case MapValue:
		parts := make([]string, 0, len(t))
		for _, k := range t.Keys() {
			parts = append(parts, RenderLiteral(k)+": "+RenderLiteral(t[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []interface{}:
		return renderSequence("(", ")", t)
	case fmt.Stringer:
		return RenderLiteral(t.String())
	}
	return RenderLiteral(fmt.Sprint(v))
}

func renderSequence(open, close string, items []interface{}) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = RenderLiteral(it)
	}
	return open + strings.Join(parts, ", ") + close
}
