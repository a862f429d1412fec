// Package casegen explores web applications and derives candidate test cases
// from what it finds. It follows links breadth- or depth-first under a page
// budget, records the forms, links and interactive elements of every visited
// page, and turns that structure into deduplicated test cases with a
// coverage score.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, goquery/, sqlite/) or the
// concern they orchestrate (crawl/, explore/, generate/).
package casegen
