// Package graph builds the one-hop symbol graph: per-unit definition
// pre-pass, symbol collection and reference enrichment, the cross-unit
// symbol table, and context bundle assembly against that table.
package graph
