package x86sim

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"
)

func TestRunExitSyscall(t *testing.T) {
	code, err := Run(`global _start

_start:
	mov rax, 42
	push rax
	pop rdi
	mov rax, 60
	syscall
`, 0)
	be.Err(t, err, nil)
	be.Equal(t, code, int64(42))
}

func TestRunExitProcess(t *testing.T) {
	code, err := Run(`global start
extern ExitProcess

section .text

start:
	mov rcx, 7
	and rsp, -16
	sub rsp, 32
	call ExitProcess
`, 0)
	be.Err(t, err, nil)
	be.Equal(t, code, int64(7))
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int64
	}{
		{"add", "mov rax, 2\n\tmov rbx, 3\n\tadd rax, rbx", 5},
		{"sub", "mov rax, 2\n\tmov rbx, 3\n\tsub rax, rbx", -1},
		{"imul", "mov rax, -4\n\tmov rbx, 3\n\timul rax, rbx", -12},
		{"idiv", "mov rax, 17\n\tmov rbx, 5\n\tcqo\n\tidiv rbx", 3},
		{"idiv negative", "mov rax, -17\n\tmov rbx, 5\n\tcqo\n\tidiv rbx", -3},
		{"setl", "mov rax, 1\n\tmov rbx, 2\n\tcmp rax, rbx\n\tsetl al\n\tmovzx rax, al", 1},
		{"setge", "mov rax, 1\n\tmov rbx, 2\n\tcmp rax, rbx\n\tsetge al\n\tmovzx rax, al", 0},
		{"sete", "mov rax, 9\n\tmov rbx, 9\n\tcmp rax, rbx\n\tsete al\n\tmovzx rax, al", 1},
		{"movzx clears upper bits", "mov rax, 256\n\tmov rbx, 1\n\tcmp rax, rbx\n\tsetne al\n\tmovzx rax, al", 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			code, err := Run("global _start\n_start:\n\t"+test.body+"\n\tmov rdi, rax\n\tmov rax, 60\n\tsyscall\n", 0)
			be.Err(t, err, nil)
			be.Equal(t, code, test.want)
		})
	}
}

func TestStackSlots(t *testing.T) {
	code, err := Run(`global _start
_start:
	mov rax, 10
	push rax
	mov rax, 20
	push rax
	push QWORD [rsp + 8]
	pop rax
	mov QWORD [rsp + 0], rax
	pop rdi
	add rsp, 8
	mov rax, 60
	syscall
`, 0)
	be.Err(t, err, nil)
	be.Equal(t, code, int64(10))
}

func TestJumps(t *testing.T) {
	// Counts down from 3, so the loop body runs three times.
	code, err := Run(`global _start
_start:
	mov rbx, 0
	mov rcx, 3
L0:
	cmp rcx, 0
	je L1
	add rbx, 2
	sub rcx, 1
	jmp L0
L1:
	mov rdi, rbx
	mov rax, 60
	syscall
`, 0)
	be.Err(t, err, nil)
	be.Equal(t, code, int64(6))
}

func TestComments(t *testing.T) {
	code, err := Run(`; leading comment
global _start
_start:
	mov rdi, 3 ; trailing comment
	mov rax, 60
	syscall
`, 0)
	be.Err(t, err, nil)
	be.Equal(t, code, int64(3))
}

func TestImmediatesAreDecimal(t *testing.T) {
	code, err := Run("global _start\n_start:\n\tmov rdi, 010\n\tmov rax, 60\n\tsyscall\n", 0)
	be.Err(t, err, nil)
	be.Equal(t, code, int64(10))

	code, err = Run("global _start\n_start:\n\tmov rdi, 08\n\tmov rax, 60\n\tsyscall\n", 0)
	be.Err(t, err, nil)
	be.Equal(t, code, int64(8))
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"unknown instruction", "nop", ErrUnknownInstr},
		{"stack underflow", "pop rax", ErrStackUnderflow},
		{"underflow after add", "add rsp, 8\n\tpush QWORD [rsp + 8]", ErrStackUnderflow},
		{"division by zero", "mov rax, 1\n\tmov rbx, 0\n\tcqo\n\tidiv rbx", ErrDivideByZero},
		{"division overflow", "mov rax, -9223372036854775808\n\tmov rbx, -1\n\tcqo\n\tidiv rbx", ErrDivideOverflow},
		{"unknown function", "call printf", ErrUnknownFunction},
		{"bad operand", "mov rax, banana", ErrBadOperand},
		{"undefined label", "jmp nowhere", ErrBadOperand},
		{"fell off end", "mov rax, 1", ErrFellOffEnd},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Run("global _start\n_start:\n\t"+test.body+"\n", 0)
			be.True(t, errors.Is(err, test.want))
		})
	}
}

func TestStepLimit(t *testing.T) {
	_, err := Run("global _start\n_start:\nL0:\n\tjmp L0\n", 100)
	be.Err(t, err, ErrStepLimit)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("_start:\n\tsyscall\n")
	be.Err(t, err, "no global entry point")

	_, err = Parse("global main\n_start:\n\tsyscall\n")
	be.Err(t, err, `entry point "main" is not defined`)

	_, err = Parse("global _start\n_start:\n_start:\n")
	be.Err(t, err, `line 3: duplicate label "_start"`)
}

func TestParseOperands(t *testing.T) {
	prog, err := Parse("global _start\n_start:\n\tmov QWORD [rsp + 16], rax\n")
	be.Err(t, err, nil)
	be.Equal(t, len(prog.Instructions), 1)
	be.Equal(t, prog.Instructions[0].Mnemonic, "mov")
	be.Equal(t, prog.Instructions[0].Operands, []string{"QWORD [rsp + 16]", "rax"})
	be.Equal(t, prog.Instructions[0].Line, 3)
	be.Equal(t, prog.Labels["_start"], 0)
}
