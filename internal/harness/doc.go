// Package harness runs conformance scenarios against a fresh countydata store.
//
// A scenario is a YAML file naming CSV sources to load, a flow of load and
// lookup steps with expected outcomes, and assertions over the resulting
// trace and tables:
//
//	name: cambridge_adult_obesity
//	description: ZIP 02138 resolves to Middlesex County
//	sources:
//	  - data/zip_county.csv
//	  - data/county_health_rankings.csv
//	flow:
//	  - lookup: {zip: "02138", measure_name: Adult obesity}
//	    expect: {case: ok, rows: 2}
//	  - lookup: {zip: "02138", measure_name: Not A Measure}
//	    expect: {case: BAD_REQUEST}
//	assertions:
//	  - type: row_count
//	    table: zip_county
//	    count: 4
//
// Paths are relative to the scenario file. Every run gets its own SQLite
// file in a temporary directory, so scenarios never share state.
//
// The trace of a run is deterministic: sequence numbers come from a logical
// clock and no timings are recorded. Snapshot renders it for golden-file
// comparison.
package harness
