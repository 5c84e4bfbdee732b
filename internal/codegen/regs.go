package codegen

// The machine spec §4.5 targets has an accumulator (A), a scratch
// register (B) for the other operand of a binary op, a frame pointer,
// and a stack pointer; this generator maps those directly onto the
// System-V x86-64 registers an external assembler understands: %rax is
// A, %rbx is B, and %rcx doubles as division scratch since it never
// survives a binary operator's evaluation window. expr.go and stmt.go
// spell these out as literal operands in their instruction templates
// rather than through named constants, since an AT&T-syntax mnemonic
// reads as one inseparable unit with its operands.

// argRegs64/argRegs8 are the System-V integer argument registers, in
// order, for up to six parameters (spec §4.5) — the 8-bit aliases are
// used only when spilling a narrow char parameter to its frame slot.
var argRegs64 = [6]string{"%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9"}
var argRegs8 = [6]string{"%dil", "%sil", "%dl", "%cl", "%r8b", "%r9b"}

const maxArgs = 6
