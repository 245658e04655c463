// Package sanitizer normalizes room and booking input before validation and
// storage.
//
// All functions are idempotent: applying them twice gives the same result as
// applying them once. Invalid input is reduced to an empty string rather than
// reported as an error; validation decides whether empty is acceptable.
//
// Normalization includes:
//   - Strings: collapse whitespace, trim leading/trailing spaces
//   - Room types: lowercase, runs of non letters/digits become "_" - "Deluxe Suite" becomes "deluxe_suite"
//   - Photo references: keep only blob key characters, strip surrounding slashes
package sanitizer
