// Package text canonicalizes free-form Japanese event and organization names
// into forms that can be compared across independently maintained sources.
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
// Core derives the stricter comparison form with whitespace and stop words removed.
package text
