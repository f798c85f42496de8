// Package ir provides the JSON view of values crossing the call boundary.
//
// Contract values travel as SCALE bytes (package scale). Humans, scenario
// files, the HTTP host and the call journal digests see them through this
// package instead: a small sealed set of JSON-shaped values with a canonical
// serialization (RFC 8785 key order, NFC strings, no HTML escaping).
//
// ir imports nothing internal. Every other package may import it.
//
// Constraints:
//   - No floats. Integers that fit int64 are Int; wider integers
//     (u64 above 2^63-1, u128, i128) are Big, kept as decimal digits.
//   - Null exists only so arbitrary JSON can be parsed; canonical output
//     rejects it.
//   - Object keys are snake_case and iterate in SortedKeys order.
package ir
