// Copyright 2021 Converter Systems LLC. All rights reserved.

package historian

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/awcullen/uatree/server"
	"github.com/awcullen/uatree/ua"
	_ "github.com/glebarez/go-sqlite"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// DriverSQLite is the driver name of github.com/glebarez/go-sqlite.
	DriverSQLite = "sqlite"
	// DriverPostgres is the driver name of github.com/lib/pq.
	DriverPostgres = "postgres"
)

const createHistoryTable = `
	CREATE TABLE IF NOT EXISTS history (
		node_id TEXT NOT NULL,
		source_ts BIGINT NOT NULL,
		server_ts BIGINT NOT NULL,
		status BIGINT NOT NULL,
		value %s,
		PRIMARY KEY (node_id, source_ts)
	)`

const (
	selectCounts = `SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN source_ts < ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN source_ts <= ? THEN 1 ELSE 0 END), 0)
		FROM history WHERE node_id = ?`
	selectCount  = `SELECT COUNT(*) FROM history WHERE node_id = ?`
	selectValues = `SELECT source_ts, server_ts, status, value FROM history
		WHERE node_id = ? ORDER BY source_ts LIMIT ? OFFSET ?`
	upsertValue = `INSERT INTO history (node_id, source_ts, server_ts, status, value) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (node_id, source_ts) DO UPDATE SET server_ts = excluded.server_ts, status = excluded.status, value = excluded.value`
	insertValue = `INSERT INTO history (node_id, source_ts, server_ts, status, value) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (node_id, source_ts) DO NOTHING`
	updateValue = `UPDATE history SET server_ts = ?, status = ?, value = ? WHERE node_id = ? AND source_ts = ?`
	deleteRange = `DELETE FROM history WHERE node_id = ? AND source_ts >= ? AND source_ts < ?`
	deleteFrom  = `DELETE FROM history WHERE node_id = ? AND source_ts >= ?`
	trimValues  = `DELETE FROM history WHERE node_id = ? AND source_ts <= (
		SELECT source_ts FROM history WHERE node_id = ? ORDER BY source_ts DESC LIMIT 1 OFFSET ?)`
)

// SQLBackend stores the values of historized nodes in the table "history"
// of a sqlite or postgres database. Values are kept in UA Binary encoding.
type SQLBackend struct {
	UnimplementedBackend
	db               *sql.DB
	driverName       string
	maxValuesPerNode int
	logger           logrus.FieldLogger
}

// SQLOption is a functional option to be applied to a SQLBackend during initialization.
type SQLOption func(*SQLBackend) error

// WithMaxValuesPerNode sets the number of values kept per node. The oldest
// values are removed first. (default: 0, keep every value)
func WithMaxValuesPerNode(value int) SQLOption {
	return func(s *SQLBackend) error {
		if value < 0 {
			return errors.New("max values per node is negative")
		}
		s.maxValuesPerNode = value
		return nil
	}
}

// WithSQLLogger sets the logger of the backend. (default: logrus.StandardLogger())
func WithSQLLogger(logger logrus.FieldLogger) SQLOption {
	return func(s *SQLBackend) error {
		if logger == nil {
			return errors.New("logger is nil")
		}
		s.logger = logger
		return nil
	}
}

// OpenSQLBackend opens the database and returns a backend storing in it.
func OpenSQLBackend(driverName, dataSourceName string, opts ...SQLOption) (*SQLBackend, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", driverName)
	}
	s, err := NewSQLBackend(db, driverName, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLBackend returns a backend storing in db and creates the table if needed.
func NewSQLBackend(db *sql.DB, driverName string, opts ...SQLOption) (*SQLBackend, error) {
	s := &SQLBackend{
		db:         db,
		driverName: driverName,
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	var blobType string
	switch driverName {
	case DriverSQLite:
		// a connection per in-memory database, and one writer at a time.
		db.SetMaxOpenConns(1)
		blobType = "BLOB"
	case DriverPostgres:
		blobType = "BYTEA"
	default:
		return nil, errors.Errorf("unsupported driver %q", driverName)
	}
	if _, err := db.Exec(fmt.Sprintf(createHistoryTable, blobType)); err != nil {
		return nil, errors.Wrap(err, "create history table")
	}
	return s, nil
}

// DB returns the database.
func (s *SQLBackend) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *SQLBackend) Close() error {
	return s.db.Close()
}

// rebind replaces the ? placeholders with $n for postgres.
func (s *SQLBackend) rebind(query string) string {
	if s.driverName != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLBackend) exec(query string, args ...any) (int64, error) {
	res, err := s.db.Exec(s.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLBackend) fail(ctx Context, op string, err error) ua.StatusCode {
	s.logger.WithField("node", ctx.NodeID).WithError(err).Warnf("Error %s history.", op)
	return ua.BadInternalError
}

func nanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func timeOf(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}

func (s *SQLBackend) row(ctx Context, value ua.DataValue) ([]any, error) {
	blob, err := ua.Marshal(&value.Value)
	if err != nil {
		return nil, err
	}
	return []any{ctx.NodeID.String(), nanos(value.SourceTimestamp), nanos(value.ServerTimestamp), int64(value.StatusCode), blob}, nil
}

func (s *SQLBackend) trim(ctx Context) error {
	if s.maxValuesPerNode <= 0 {
		return nil
	}
	id := ctx.NodeID.String()
	_, err := s.exec(trimValues, id, id, s.maxValuesPerNode)
	return err
}

func (s *SQLBackend) ServerSetHistoryData(ctx Context, historizing bool, value ua.DataValue) ua.StatusCode {
	if value.SourceTimestamp.IsZero() {
		value.SourceTimestamp = time.Now()
	}
	args, err := s.row(ctx, value)
	if err != nil {
		return s.fail(ctx, "encoding", err)
	}
	if _, err := s.exec(upsertValue, args...); err != nil {
		return s.fail(ctx, "storing", err)
	}
	if err := s.trim(ctx); err != nil {
		return s.fail(ctx, "trimming", err)
	}
	return ua.Good
}

func (s *SQLBackend) GetHistoryData(ctx Context, q server.HistoryDataQuery, result *ua.HistoryData) (ua.ByteString, ua.StatusCode) {
	return ReadHistoryData(ctx, s, q, result)
}

func (s *SQLBackend) counts(ctx Context, ts time.Time) (lower, upper, end int, err error) {
	t := nanos(ts)
	err = s.db.QueryRow(s.rebind(selectCounts), t, t, ctx.NodeID.String()).Scan(&end, &lower, &upper)
	return
}

func (s *SQLBackend) GetDateTimeMatch(ctx Context, timestamp time.Time, strategy server.MatchStrategy) int {
	lower, upper, end, err := s.counts(ctx, timestamp)
	if err != nil {
		s.fail(ctx, "matching", err)
		return 0
	}
	return server.MatchIndex(lower, upper, end, strategy)
}

func (s *SQLBackend) GetEnd(ctx Context) int {
	var end int
	if err := s.db.QueryRow(s.rebind(selectCount), ctx.NodeID.String()).Scan(&end); err != nil {
		s.fail(ctx, "counting", err)
		return 0
	}
	return end
}

func (s *SQLBackend) LastIndex(ctx Context) int {
	return s.GetEnd(ctx) - 1
}

func (s *SQLBackend) FirstIndex(ctx Context) int {
	return 0
}

func (s *SQLBackend) ResultSize(ctx Context, startIndex, endIndex int) int {
	return server.ResultSize(startIndex, endIndex, s.GetEnd(ctx))
}

func (s *SQLBackend) query(ctx Context, offset, limit int) ([]ua.DataValue, error) {
	rows, err := s.db.Query(s.rebind(selectValues), ctx.NodeID.String(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := make([]ua.DataValue, 0, limit)
	for rows.Next() {
		var src, srv, status int64
		var blob []byte
		if err := rows.Scan(&src, &srv, &status, &blob); err != nil {
			return nil, err
		}
		var v ua.Variant
		if len(blob) > 0 {
			if err := ua.Unmarshal(blob, &v); err != nil {
				return nil, err
			}
		}
		res = append(res, ua.NewDataValue(v, ua.StatusCode(status), timeOf(src), 0, timeOf(srv), 0))
	}
	return res, rows.Err()
}

func (s *SQLBackend) CopyDataValues(ctx Context, startIndex, endIndex int, reverse bool, values []ua.DataValue) (int, ua.StatusCode) {
	end := s.GetEnd(ctx)
	if end == 0 {
		return 0, ua.Good
	}
	if startIndex < 0 || endIndex < 0 || startIndex >= end || endIndex >= end {
		return 0, ua.BadIndexRangeInvalid
	}
	lo, hi := startIndex, endIndex
	if lo > hi {
		lo, hi = hi, lo
	}
	res, err := s.query(ctx, lo, hi-lo+1)
	if err != nil {
		return 0, s.fail(ctx, "reading", err)
	}
	if reverse {
		for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
			res[i], res[j] = res[j], res[i]
		}
	}
	return copy(values, res), ua.Good
}

func (s *SQLBackend) GetDataValue(ctx Context, index int) (ua.DataValue, bool) {
	if index < 0 {
		return ua.DataValue{}, false
	}
	res, err := s.query(ctx, index, 1)
	if err != nil {
		s.fail(ctx, "reading", err)
		return ua.DataValue{}, false
	}
	if len(res) == 0 {
		return ua.DataValue{}, false
	}
	return res[0], true
}

func (s *SQLBackend) BoundSupported(ctx Context) bool {
	return true
}

func (s *SQLBackend) TimestampsToReturnSupported(ctx Context, ttr ua.TimestampsToReturn) bool {
	switch ttr {
	case ua.TimestampsToReturnNeither, ua.TimestampsToReturnInvalid:
		return false
	case ua.TimestampsToReturnServer, ua.TimestampsToReturnBoth:
		if first, ok := s.GetDataValue(ctx, 0); ok {
			return !first.ServerTimestamp.IsZero()
		}
	}
	return true
}

func (s *SQLBackend) InsertDataValue(ctx Context, value ua.DataValue) ua.StatusCode {
	if value.SourceTimestamp.IsZero() {
		return ua.BadInvalidTimestampArgument
	}
	args, err := s.row(ctx, value)
	if err != nil {
		return s.fail(ctx, "encoding", err)
	}
	n, err := s.exec(insertValue, args...)
	if err != nil {
		return s.fail(ctx, "inserting", err)
	}
	if n == 0 {
		return ua.BadEntryExists
	}
	if err := s.trim(ctx); err != nil {
		return s.fail(ctx, "trimming", err)
	}
	return ua.GoodEntryInserted
}

func (s *SQLBackend) ReplaceDataValue(ctx Context, value ua.DataValue) ua.StatusCode {
	if value.SourceTimestamp.IsZero() {
		return ua.BadInvalidTimestampArgument
	}
	args, err := s.row(ctx, value)
	if err != nil {
		return s.fail(ctx, "encoding", err)
	}
	n, err := s.exec(updateValue, args[2], args[3], args[4], args[0], args[1])
	if err != nil {
		return s.fail(ctx, "replacing", err)
	}
	if n == 0 {
		return ua.BadNoEntryExists
	}
	return ua.GoodEntryReplaced
}

func (s *SQLBackend) UpdateDataValue(ctx Context, value ua.DataValue) ua.StatusCode {
	if code := s.ReplaceDataValue(ctx, value); code != ua.BadNoEntryExists {
		return code
	}
	return s.InsertDataValue(ctx, value)
}

// RemoveDataValue removes the values with start <= timestamp < end. A zero
// end removes every value from start on.
func (s *SQLBackend) RemoveDataValue(ctx Context, start, end time.Time) ua.StatusCode {
	var n int64
	var err error
	if end.IsZero() {
		n, err = s.exec(deleteFrom, ctx.NodeID.String(), nanos(start))
	} else {
		n, err = s.exec(deleteRange, ctx.NodeID.String(), nanos(start), nanos(end))
	}
	if err != nil {
		return s.fail(ctx, "removing", err)
	}
	if n == 0 {
		return ua.BadNoData
	}
	return ua.Good
}
