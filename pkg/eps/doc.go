// Package eps decodes EUMETSAT EPS native-format product files.
//
// An EPS file is a sequence of big-endian records, each framed by a
// 20-byte Generic Record Header (GRH) carrying the record class, its
// size and a validity time window. The package provides the generic
// machinery shared by every product family: the GRH parser, an ASCII
// MPHR parser, a declarative field-layout decoder, an internal pointer
// index for O(1) access to individual measurement records (MDRs), and
// the base File that owns the byte source.
//
// Product-specific layouts and typed accessors live in the l1c, l2 and
// pc subpackages; principal-component reconstruction lives in pkg/pcc.
package eps
