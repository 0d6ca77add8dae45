// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// event records are ordered by seq, assigned by the writer.
const eventTableSchema = `
CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY NOT NULL,
	domain TEXT NOT NULL,
	name TEXT NOT NULL,
	account BLOB(20) NOT NULL,
	amount BLOB,
	ts INTEGER NOT NULL,
	boxID INTEGER NOT NULL,
	nonce INTEGER NOT NULL,
	messageID BLOB(32)
);

CREATE INDEX IF NOT EXISTS event_name ON event(domain, name);
CREATE INDEX IF NOT EXISTS event_account ON event(account);
CREATE INDEX IF NOT EXISTS event_ts ON event(ts);
`
