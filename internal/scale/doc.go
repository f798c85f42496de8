// Package scale implements the SCALE binary codec used on the call boundary.
//
// Values are encoded without self-description: the reader must know the type
// it expects. The rules implemented here:
//
//   - Fixed-width integers are little-endian (u8, u32, u64, i8, u128, i128).
//     128-bit values travel as *big.Int and are range-checked on encode.
//   - bool is a single byte, 0x00 or 0x01. Any other byte is rejected.
//   - Lengths use the compact encoding (single-byte, two-byte, four-byte and
//     big-integer modes). Non-canonical compact forms are rejected.
//   - Strings are a compact byte length followed by UTF-8 bytes.
//   - Enums are a one-byte variant index followed by the variant payload.
//     Option is 0x00 (None) or 0x01 followed by the value; Result is 0x00
//     followed by Ok or 0x01 followed by Err.
//
// Decoding never allocates more than the remaining input can justify, so a
// hostile length prefix fails with ErrUnexpectedEOF instead of exhausting memory.
package scale
