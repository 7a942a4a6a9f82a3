// Package csvledger stores the run-history ledger as an append-only CSV file.
//
// Every row starts with its schema version. When rows of a new version are
// first appended, a comment line naming that version's columns is written
// before them, so the file stays readable by spreadsheet tools while older
// rows are never rewritten. Readers upgrade old rows by leaving the columns
// they lack empty.
package csvledger
