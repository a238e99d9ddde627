package ident

import "strings"

// sqliteKeywords is the keyword list from https://sqlite.org/lang_keywords.html.
var sqliteKeywords = map[string]struct{}{}

// sqliteFallbackKeywords are keywords the SQLite parser accepts as plain
// identifiers when they appear where a name is expected (the %fallback ID set
// in parse.y, plus the context-sensitive window keywords).
var sqliteFallbackKeywords = map[string]struct{}{}

func init() {
	for _, kw := range strings.Fields(`
		ABORT ACTION ADD AFTER ALL ALTER ALWAYS ANALYZE AND AS ASC ATTACH
		AUTOINCREMENT BEFORE BEGIN BETWEEN BY CASCADE CASE CAST CHECK COLLATE
		COLUMN COMMIT CONFLICT CONSTRAINT CREATE CROSS CURRENT CURRENT_DATE
		CURRENT_TIME CURRENT_TIMESTAMP DATABASE DEFAULT DEFERRABLE DEFERRED
		DELETE DESC DETACH DISTINCT DO DROP EACH ELSE END ESCAPE EXCEPT EXCLUDE
		EXCLUSIVE EXISTS EXPLAIN FAIL FILTER FIRST FOLLOWING FOR FOREIGN FROM
		FULL GENERATED GLOB GROUP GROUPS HAVING IF IGNORE IMMEDIATE IN INDEX
		INDEXED INITIALLY INNER INSERT INSTEAD INTERSECT INTO IS ISNULL JOIN KEY
		LAST LEFT LIKE LIMIT MATCH MATERIALIZED NATURAL NO NOT NOTHING NOTNULL
		NULL NULLS OF OFFSET ON OR ORDER OTHERS OUTER OVER PARTITION PLAN
		PRAGMA PRECEDING PRIMARY QUERY RAISE RANGE RECURSIVE REFERENCES REGEXP
		REINDEX RELEASE RENAME REPLACE RESTRICT RETURNING RIGHT ROLLBACK ROW
		ROWS SAVEPOINT SELECT SET TABLE TEMP TEMPORARY THEN TIES TO TRANSACTION
		TRIGGER UNBOUNDED UNION UNIQUE UPDATE USING VACUUM VALUES VIEW VIRTUAL
		WHEN WHERE WINDOW WITH WITHOUT
	`) {
		sqliteKeywords[kw] = struct{}{}
	}

	// CURRENT_* and the LIKE family also fall back, but they keep their
	// keyword meaning inside expressions, so they stay reserved here.
	for _, kw := range strings.Fields(`
		ABORT ACTION AFTER ALWAYS ANALYZE ASC ATTACH BEFORE BEGIN BY CASCADE
		CAST COLUMN CONFLICT CURRENT DATABASE DEFERRED DESC DETACH DO EACH END
		EXCLUDE EXCLUSIVE EXPLAIN FAIL FILTER FIRST FOLLOWING FOR GENERATED
		GROUPS IF IGNORE IMMEDIATE INITIALLY INSTEAD KEY LAST MATCH
		MATERIALIZED NO NULLS OF OFFSET OTHERS OVER PARTITION PLAN PRAGMA
		PRECEDING QUERY RAISE RANGE RECURSIVE REINDEX RELEASE RENAME REPLACE
		RESTRICT ROW ROWS SAVEPOINT TEMP TEMPORARY TIES TRIGGER UNBOUNDED
		VACUUM VIEW VIRTUAL WINDOW WITH WITHOUT
	`) {
		sqliteFallbackKeywords[kw] = struct{}{}
	}
}

// IsKeyword reports whether name is an SQLite keyword, ignoring case.
func IsKeyword(name string) bool {
	_, ok := sqliteKeywords[strings.ToUpper(name)]
	return ok
}

// IsReserved reports whether name is an SQLite keyword that cannot be used
// as an unquoted table name, ignoring case.
func IsReserved(name string) bool {
	upper := strings.ToUpper(name)
	if _, ok := sqliteKeywords[upper]; !ok {
		return false
	}
	_, fallback := sqliteFallbackKeywords[upper]
	return !fallback
}
