// Package codegen lowers typed, symbol-resolved Pascal statements into the
// label-addressed stack bytecode of package bytecode.
//
// A Generator owns one routine's label arena and sink. LowerStmt dispatches
// on the statement kind to exactly one lowering routine; expressions go to
// an ExprEmitter, by default the generator's own expression lowering.
// LowerProgram drives a Generator per routine and assembles the class.
package codegen
