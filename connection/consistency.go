package connection

import (
	"fmt"
	"strings"

	"github.com/gocql/gocql"
)

// Consistency is the consistency level a statement runs at. The zero value
// leaves the choice to the executor.
type Consistency uint16

const (
	Default Consistency = iota
	Any
	One
	Two
	Three
	Quorum
	All
	LocalQuorum
	EachQuorum
	Serial
	LocalSerial
	LocalOne
)

var consistencyNames = map[Consistency]string{
	Default:     "DEFAULT",
	Any:         "ANY",
	One:         "ONE",
	Two:         "TWO",
	Three:       "THREE",
	Quorum:      "QUORUM",
	All:         "ALL",
	LocalQuorum: "LOCAL_QUORUM",
	EachQuorum:  "EACH_QUORUM",
	Serial:      "SERIAL",
	LocalSerial: "LOCAL_SERIAL",
	LocalOne:    "LOCAL_ONE",
}

func (c Consistency) String() string {
	if n, ok := consistencyNames[c]; ok {
		return n
	}
	return fmt.Sprintf("CONSISTENCY(%d)", uint16(c))
}

// ParseConsistency accepts the CQL names, e.g. "local_quorum".
func ParseConsistency(s string) (Consistency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Default, nil
	}
	for c, n := range consistencyNames {
		if n == s {
			return c, nil
		}
	}
	return Default, fmt.Errorf("unknown consistency %q", s)
}

// UnmarshalYAML reads a consistency name from config.
func (c *Consistency) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseConsistency(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// apply sets c on a gocql query. Serial levels only apply to the paxos
// phase of conditional writes.
func (c Consistency) apply(q *gocql.Query) {
	switch c {
	case Default:
	case Serial:
		q.SerialConsistency(gocql.Serial)
	case LocalSerial:
		q.SerialConsistency(gocql.LocalSerial)
	default:
		q.Consistency(c.gocql())
	}
}

func (c Consistency) gocql() gocql.Consistency {
	switch c {
	case Any:
		return gocql.Any
	case One:
		return gocql.One
	case Two:
		return gocql.Two
	case Three:
		return gocql.Three
	case Quorum:
		return gocql.Quorum
	case All:
		return gocql.All
	case LocalQuorum:
		return gocql.LocalQuorum
	case EachQuorum:
		return gocql.EachQuorum
	case LocalOne:
		return gocql.LocalOne
	}
	return gocql.Quorum
}
