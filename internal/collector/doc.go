// Package collector implements the source-side collaborators of the
// pipeline: SQL-backed collectors reading addon/user rows and the
// JSON-tree collector reading validator reports.
//
// Collectors only pull raw records and hand them to the collector store
// via DefineField or DefineRelation; they never filter or reshape, that
// is the processors' job. Source access failures (connection errors,
// unreadable files, malformed JSON) are fatal for the run.
package collector
