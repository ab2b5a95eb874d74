package connection

import (
	"context"
	"reflect"
	"time"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"
)

const (
	_defaultTimeout  = 10 * time.Second
	_defaultInterval = 2 * time.Second
)

// Config is what NewSession needs to reach a cluster.
type Config struct {
	Hosts        []string
	Keyspace     string
	User         string
	Password     string
	ProtoVersion int
	Timeout      time.Duration
	// Retries is the number of extra attempts made when the session cannot
	// be created, Interval apart.
	Retries  int
	Interval time.Duration
}

// NewSession connects to the cluster, retrying on failure.
func NewSession(cfg *Config) (*gocql.Session, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Timeout = _defaultTimeout
	if cfg.Timeout > 0 {
		cluster.Timeout = cfg.Timeout
	}
	if cfg.ProtoVersion > 0 {
		cluster.ProtoVersion = cfg.ProtoVersion
	}
	cluster.Keyspace = cfg.Keyspace
	if cfg.User != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.User,
			Password: cfg.Password,
		}
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = _defaultInterval
	}

	var (
		sess *gocql.Session
		err  error
	)
	for attempt := 0; attempt <= cfg.Retries; attempt++ {
		if sess, err = cluster.CreateSession(); err == nil {
			return sess, nil
		}
		log.WithError(err).
			WithField("hosts", cfg.Hosts).
			WithField("attempt", attempt+1).
			Warn("failed to create session")
		if attempt < cfg.Retries {
			time.Sleep(interval)
		}
	}
	return nil, errors.Wrapf(err, "connect to %v", cfg.Hosts)
}

// Metrics tracks statement executions.
type Metrics struct {
	ExecuteSuccess tally.Counter
	ExecuteLatency tally.Timer
	scope          tally.Scope
}

// NewMetrics creates the executor metrics under scope.
func NewMetrics(scope tally.Scope) Metrics {
	executeScope := scope.SubScope(executeName)
	return Metrics{
		ExecuteSuccess: executeScope.Tagged(
			map[string]string{"result": "success"}).Counter(executeName),
		ExecuteLatency: executeScope.Timer("latency"),
		scope:          executeScope,
	}
}

func (m Metrics) fail(err error) {
	m.scope.Tagged(map[string]string{
		"result": "fail",
		"error":  errorTag(err),
	}).Counter(executeName).Inc(1)
}

const executeName = "execute"

// errorTag names the class of a gocql error for metric tags. Error strings
// carry characters metric backends reject.
func errorTag(err error) string {
	switch errors.Cause(err).(type) {
	case *gocql.RequestErrReadFailure:
		return "read_failure"
	case *gocql.RequestErrWriteFailure:
		return "write_failure"
	case *gocql.RequestErrAlreadyExists:
		return "already_exists"
	case *gocql.RequestErrReadTimeout:
		return "read_timeout"
	case *gocql.RequestErrWriteTimeout:
		return "write_timeout"
	case *gocql.RequestErrUnavailable:
		return "unavailable"
	case *gocql.RequestErrFunctionFailure:
		return "function_failure"
	case *gocql.RequestErrUnprepared:
		return "unprepared"
	default:
		return "unknown"
	}
}

// SessionExecutor is an Executor over a gocql session.
type SessionExecutor struct {
	session     *gocql.Session
	consistency Consistency
	metrics     Metrics
}

var _ Executor = (*SessionExecutor)(nil)

// NewSessionExecutor runs statements on session. Statements that do not ask
// for a consistency run at consistency.
func NewSessionExecutor(
	session *gocql.Session,
	scope tally.Scope,
	consistency Consistency,
) *SessionExecutor {
	return &SessionExecutor{
		session:     session,
		consistency: consistency,
		metrics:     NewMetrics(scope.SubScope("cql")),
	}
}

func (e *SessionExecutor) Execute(
	ctx context.Context,
	cql string,
	params map[string]interface{},
	consistency Consistency,
) (*Result, error) {
	stmt, args, err := Positional(cql, params)
	if err != nil {
		return nil, err
	}
	if consistency == Default {
		consistency = e.consistency
	}
	log.WithFields(log.Fields{
		"cql":         stmt,
		"args":        args,
		"consistency": consistency,
	}).Debug("execute")

	sw := e.metrics.ExecuteLatency.Start()
	defer sw.Stop()

	q := e.session.Query(stmt, args...).WithContext(ctx)
	consistency.apply(q)
	iter := q.Iter()

	res := &Result{}
	for _, c := range iter.Columns() {
		res.Columns = append(res.Columns, c.Name)
	}
	if len(res.Columns) > 0 {
		rd, err := iter.RowData()
		if err != nil {
			iter.Close()
			e.metrics.fail(err)
			return nil, errors.Wrap(err, "allocate row")
		}
		for iter.Scan(rd.Values...) {
			row := make([]interface{}, len(rd.Values))
			for i, v := range rd.Values {
				row[i] = reflect.Indirect(reflect.ValueOf(v)).Interface()
			}
			res.Rows = append(res.Rows, row)
		}
	}
	if err := iter.Close(); err != nil {
		e.metrics.fail(err)
		log.WithError(err).WithField("cql", stmt).Error("execute failed")
		return nil, errors.Wrapf(err, "execute %q", stmt)
	}
	e.metrics.ExecuteSuccess.Inc(1)
	return res, nil
}

func (e *SessionExecutor) Close() {
	e.session.Close()
}
