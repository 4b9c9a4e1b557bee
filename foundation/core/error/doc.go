// Package error provides structured error handling for the ct4pwd compiler.
//
// Package: error
// Title: ct4pwd Error Handling Framework
// Description: Structured errors with codes, severities, details and stack
//              traces. Compiler stages return their own typed errors; the
//              service layer wraps them with this package so that logging
//              and the request boundary see one consistent error shape.
// Author: msto63
// Version: v0.2.0
// Created: 2026-09-14
// Modified: 2026-10-02
//
// Change History:
// - 2026-09-14 v0.1.0: Initial error type with codes and severities
// - 2026-10-02 v0.2.0: Compiler pipeline codes (structure, syntax, execution)
//
// Usage:
//   import mdwerror "github.com/msto63/ct4pwd/foundation/core/error"
//
//   err := mdwerror.Wrap(parseErr, "compile failed").
//     WithCode(mdwerror.CodeVPLSyntax).
//     WithDetail("row", 3)
//
//   if mdwerror.HasCode(err, mdwerror.CodeVPLSyntax) {
//     // report diagnostic to the caller
//   }
package error
