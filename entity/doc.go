// Package entity implements versioned entities: data shapes that evolved
// over multiple numbered versions, each with its own validation contract and
// an upgrade transform from the immediately preceding version.
//
// An Entity is built from an immutable Registry of version Definitions plus
// a Resolver that extracts a version number from untyped input. The facade
// offers membership testing across all known versions (Is), latest-only
// testing (IsLatest), and parse-and-migrate (SafeParse), which validates
// input at the version it claims to be and then walks forward one upgrade
// per version until the latest. Failures come back as data with a precise
// taxonomy separating caller data problems from entity-authoring defects.
//
// Everything here is immutable after construction and free of side effects,
// so concurrent callers need no synchronization as long as their upgrade
// functions and validators are themselves reentrant.
package entity
