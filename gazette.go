// Package gazette monitors official government gazettes for new
// publications. It fetches a gazette's daily listing, extracts structured
// publication items from heterogeneous raw formats (XML, HTML, JSON),
// detects which items are new relative to previously persisted state, and
// records the outcome of every run.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, resty/, rod/).
package gazette
