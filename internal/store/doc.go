// Package store provides the SQLite-backed record store the harness
// persists candidate records to.
//
// The store owns record augmentation: every inserted record receives a
// store-generated identifier and version marker. Field values are kept
// as canonical JSON (sorted keys, NFC-normalized strings, no floats or
// nulls) so that equal records always produce identical stored text.
//
// Identifier and version live in their own columns, so Record.Fields
// is the logical shape with store-generated fields already stripped.
package store
