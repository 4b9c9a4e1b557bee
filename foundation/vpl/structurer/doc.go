// File: doc.go
// Title: Structurer Package Documentation
// Description: Spatial lexer turning an unordered set of positioned marker
//              tokens into an ordered, depth-annotated row stream.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-16
// Modified: 2026-09-16
//
// Change History:
// - 2026-09-16 v0.1.0: Initial implementation

/*
Package structurer recovers program layout from marker geometry.

Tokens whose y coordinates lie within RowTolerance of a row's running mean
form one row. Rows are ordered top to bottom, tokens inside a row left to
right. The indentation depth of a row is derived from the x offset of its
leading token relative to the leftmost token of the whole image, bucketed
by a Banding. Offsets between two bands snap to the nearer one, so small
camera jitter never creates a new scope level.

A row may hold a single header (loop, if, else, condition), an if header
followed by its condition or color, or a run of leaf markers (direction,
action, color). Anything else is an AmbiguousRow.
*/
package structurer
