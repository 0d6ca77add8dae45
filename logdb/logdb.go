// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb stores emitted staker and mirror events in sqlite for querying.
package logdb

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"math/big"
	"sync"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/stakebridge/log"
	"github.com/vechain/stakebridge/thor"
)

var logger = log.WithContext("pkg", "logdb")

const insertEventQuery = "INSERT OR REPLACE INTO event(seq, domain, name, account, amount, ts, boxID, nonce, messageID) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
	stmtCache     *stmtCache

	// last assigned sequence, guarded by mu
	mu   sync.Mutex
	last sequence
}

// New creates or opens a log db at path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	return open(path, db)
}

// NewMem creates a log db in memory.
func NewMem() (*LogDB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	// each connection would open its own empty database
	db.SetMaxOpenConns(1)
	ldb, err := open(":memory:", db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return ldb, nil
}

func open(path string, db *sql.DB) (*LogDB, error) {
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	var last sql.NullInt64
	if err := db.QueryRow("SELECT MAX(seq) FROM event").Scan(&last); err != nil {
		return nil, errors.Wrap(err, "load newest sequence")
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
		stmtCache:     newStmtCache(db),
		last:          sequence(last.Int64),
	}, nil
}

// Close closes the log db.
func (db *LogDB) Close() error {
	db.stmtCache.Clear()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// DriverVersion returns the sqlite library version.
func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// nextSequence orders ev after every event written so far.
func (db *LogDB) nextSequence(ts uint64) sequence {
	db.mu.Lock()
	defer db.mu.Unlock()

	if ts > math.MaxUint32 {
		ts = math.MaxUint32
	}
	seq := newSequence(uint32(ts), 0)
	if seq <= db.last {
		seq = db.last + 1
	}
	db.last = seq
	return seq
}

// FilterEvents returns the events matching filter.
func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	const query = "SELECT seq, domain, name, account, amount, ts, boxID, nonce, messageID FROM event"
	if filter == nil {
		return db.queryEvents(ctx, query+" ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := query + " WHERE 1"
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND ts >= ?"
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND ts <= ?"
		}
	}
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1"
		} else {
			stmt += " OR ( 1"
		}
		if criteria.Domain != "" {
			args = append(args, criteria.Domain)
			stmt += " AND domain = ?"
		}
		if criteria.Name != "" {
			args = append(args, criteria.Name)
			stmt += " AND name = ?"
		}
		if criteria.Account != nil {
			args = append(args, criteria.Account.Bytes())
			stmt += " AND account = ?"
		}
		stmt += ")"
		if i == len(filter.CriteriaSet)-1 {
			stmt += ")"
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}

	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, query string, args ...any) ([]*Event, error) {
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			ev        Event
			account   []byte
			amount    []byte
			messageID []byte
		)
		if err := rows.Scan(
			&ev.Seq,
			&ev.Domain,
			&ev.Name,
			&account,
			&amount,
			&ev.Timestamp,
			&ev.BoxID,
			&ev.Nonce,
			&messageID,
		); err != nil {
			return nil, err
		}
		ev.Account = thor.BytesToAddress(account)
		if amount != nil {
			ev.Amount = new(big.Int).SetBytes(amount)
		}
		ev.MessageID = thor.BytesToBytes32(messageID)
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// NewWriter creates a writer that batches events into one sqlite transaction.
func (db *LogDB) NewWriter() *Writer {
	return &Writer{db: db}
}

// Writer accumulates events until Commit.
type Writer struct {
	db  *LogDB
	tx  *sql.Tx
	len int
}

// Write adds ev to the pending transaction and assigns its sequence.
func (w *Writer) Write(ev *Event) error {
	// prepared before Begin, a memory db has a single connection
	stmt, err := w.db.stmtCache.Prepare(insertEventQuery)
	if err != nil {
		return err
	}
	if w.tx == nil {
		tx, err := w.db.db.Begin()
		if err != nil {
			return errors.Wrap(err, "begin")
		}
		w.tx = tx
	}

	ev.Seq = int64(w.db.nextSequence(ev.Timestamp))
	var amount []byte
	if ev.Amount != nil {
		if ev.Amount.Sign() < 0 {
			return fmt.Errorf("negative amount %v", ev.Amount)
		}
		amount = ev.Amount.Bytes()
	}
	var messageID []byte
	if !ev.MessageID.IsZero() {
		messageID = ev.MessageID.Bytes()
	}
	if _, err := w.tx.Stmt(stmt).Exec(
		ev.Seq,
		ev.Domain,
		ev.Name,
		ev.Account.Bytes(),
		amount,
		ev.Timestamp,
		ev.BoxID,
		ev.Nonce,
		messageID,
	); err != nil {
		return errors.Wrap(err, "insert event")
	}
	w.len++
	return nil
}

// Commit commits the pending events.
func (w *Writer) Commit() error {
	if w.tx == nil {
		return nil
	}
	err := w.tx.Commit()
	if err == nil {
		metricWrites().Add(int64(w.len))
		logger.Trace("events committed", "count", w.len)
	}
	w.tx, w.len = nil, 0
	return err
}

// Rollback drops the pending events.
func (w *Writer) Rollback() error {
	if w.tx == nil {
		return nil
	}
	err := w.tx.Rollback()
	w.tx, w.len = nil, 0
	return err
}

// UncommittedCount returns the number of pending events.
func (w *Writer) UncommittedCount() int {
	return w.len
}
