// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package sqlite implements the voting store on modernc.org/sqlite.

Timestamps are stored as unix milliseconds. Transactions begin with
BEGIN IMMEDIATE, so a vote insert and a status change on the same database
never interleave:

	st, err := sqlite.Open("munvote.db")
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

Open(":memory:") gives a private database, used throughout the tests.
*/
package sqlite
