package x86sim

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	wordSize   = 8
	stackWords = 1 << 16

	sysExit = 60
)

var (
	ErrStepLimit       = errors.New("step limit exceeded")
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrStackOverflow   = errors.New("stack overflow")
	ErrDivideByZero    = errors.New("division by zero")
	ErrDivideOverflow  = errors.New("division overflow")
	ErrUnknownInstr    = errors.New("unknown instruction")
	ErrFellOffEnd      = errors.New("execution ran past the last instruction")
	ErrBadOperand      = errors.New("bad operand")
	ErrUnknownFunction = errors.New("call to unknown function")
)

var registers = map[string]bool{
	"rax": true, "rbx": true, "rcx": true, "rdx": true,
	"rsi": true, "rdi": true, "rbp": true, "rsp": true,
}

// Machine is the state of one simulated process. The stack is the only
// memory; it occupies the addresses [0, stackWords*8) and rsp starts at the
// top.
type Machine struct {
	prog  *Program
	regs  map[string]int64
	stack []int64
	pc    int

	// Operands of the last cmp; the emitted code only branches on cmp.
	cmpLHS, cmpRHS int64

	Steps    int
	Exited   bool
	ExitCode int64
}

func NewMachine(prog *Program) *Machine {
	m := &Machine{
		prog:  prog,
		regs:  make(map[string]int64),
		stack: make([]int64, stackWords),
		pc:    prog.Labels[prog.Entry],
	}
	m.regs["rsp"] = stackWords * wordSize
	return m
}

// Run parses text and executes it until the process exits. It returns the
// exit code the program passed to the exit syscall or to ExitProcess.
// At most limit instructions are executed; limit <= 0 means no limit.
func Run(text string, limit int) (int64, error) {
	prog, err := Parse(text)
	if err != nil {
		return 0, fmt.Errorf("parse: %w", err)
	}
	m := NewMachine(prog)
	for !m.Exited {
		if limit > 0 && m.Steps >= limit {
			return 0, ErrStepLimit
		}
		if err := m.Step(); err != nil {
			return 0, err
		}
	}
	return m.ExitCode, nil
}

// Reg returns the value of a 64-bit register.
func (m *Machine) Reg(name string) int64 {
	return m.regs[name]
}

// Step executes one instruction.
func (m *Machine) Step() error {
	if m.Exited {
		return nil
	}
	if m.pc >= len(m.prog.Instructions) {
		return ErrFellOffEnd
	}
	in := m.prog.Instructions[m.pc]
	m.pc++
	m.Steps++
	if err := m.exec(in); err != nil {
		return fmt.Errorf("line %d: %s: %w", in.Line, in, err)
	}
	return nil
}

func (m *Machine) exec(in Instruction) error {
	ops := in.Operands
	switch in.Mnemonic {
	case "mov":
		if err := want(ops, 2); err != nil {
			return err
		}
		v, err := m.read(ops[1])
		if err != nil {
			return err
		}
		return m.write(ops[0], v)

	case "push":
		if err := want(ops, 1); err != nil {
			return err
		}
		v, err := m.read(ops[0])
		if err != nil {
			return err
		}
		return m.push(v)

	case "pop":
		if err := want(ops, 1); err != nil {
			return err
		}
		v, err := m.pop()
		if err != nil {
			return err
		}
		return m.write(ops[0], v)

	case "add", "sub", "imul", "and":
		if err := want(ops, 2); err != nil {
			return err
		}
		a, err := m.read(ops[0])
		if err != nil {
			return err
		}
		b, err := m.read(ops[1])
		if err != nil {
			return err
		}
		switch in.Mnemonic {
		case "add":
			a += b
		case "sub":
			a -= b
		case "imul":
			a *= b
		case "and":
			a &= b
		}
		return m.write(ops[0], a)

	case "cqo":
		if m.regs["rax"] < 0 {
			m.regs["rdx"] = -1
		} else {
			m.regs["rdx"] = 0
		}
		return nil

	case "idiv":
		if err := want(ops, 1); err != nil {
			return err
		}
		divisor, err := m.read(ops[0])
		if err != nil {
			return err
		}
		return m.idiv(divisor)

	case "cmp":
		if err := want(ops, 2); err != nil {
			return err
		}
		a, err := m.read(ops[0])
		if err != nil {
			return err
		}
		b, err := m.read(ops[1])
		if err != nil {
			return err
		}
		m.cmpLHS, m.cmpRHS = a, b
		return nil

	case "sete", "setne", "setl", "setg", "setle", "setge":
		if err := want(ops, 1); err != nil {
			return err
		}
		var v int64
		if m.condition(strings.TrimPrefix(in.Mnemonic, "set")) {
			v = 1
		}
		return m.write(ops[0], v)

	case "movzx":
		if err := want(ops, 2); err != nil {
			return err
		}
		v, err := m.read(ops[1])
		if err != nil {
			return err
		}
		return m.write(ops[0], v&0xff)

	case "jmp", "je", "jne", "jl", "jg", "jle", "jge":
		if err := want(ops, 1); err != nil {
			return err
		}
		target, ok := m.prog.Labels[ops[0]]
		if !ok {
			return fmt.Errorf("%w: undefined label %q", ErrBadOperand, ops[0])
		}
		if in.Mnemonic == "jmp" || m.condition(strings.TrimPrefix(in.Mnemonic, "j")) {
			m.pc = target
		}
		return nil

	case "syscall":
		if m.regs["rax"] != sysExit {
			return fmt.Errorf("unsupported syscall %d", m.regs["rax"])
		}
		m.exit(m.regs["rdi"])
		return nil

	case "call":
		if err := want(ops, 1); err != nil {
			return err
		}
		if ops[0] != "ExitProcess" {
			return fmt.Errorf("%w: %s", ErrUnknownFunction, ops[0])
		}
		m.exit(m.regs["rcx"])
		return nil

	default:
		return ErrUnknownInstr
	}
}

func (m *Machine) exit(code int64) {
	m.Exited = true
	m.ExitCode = code
}

// condition evaluates a condition code suffix against the last cmp.
func (m *Machine) condition(cc string) bool {
	a, b := m.cmpLHS, m.cmpRHS
	switch cc {
	case "e":
		return a == b
	case "ne":
		return a != b
	case "l":
		return a < b
	case "g":
		return a > b
	case "le":
		return a <= b
	case "ge":
		return a >= b
	}
	return false
}

// idiv divides rdx:rax by divisor. Only dividends that fit in rax (that is,
// rdx holds the sign extension of rax) are supported.
func (m *Machine) idiv(divisor int64) error {
	rax, rdx := m.regs["rax"], m.regs["rdx"]
	if (rax < 0 && rdx != -1) || (rax >= 0 && rdx != 0) {
		return fmt.Errorf("%w: 128-bit dividend", ErrBadOperand)
	}
	if divisor == 0 {
		return ErrDivideByZero
	}
	if rax == math.MinInt64 && divisor == -1 {
		return ErrDivideOverflow
	}
	m.regs["rax"] = rax / divisor
	m.regs["rdx"] = rax % divisor
	return nil
}

func (m *Machine) push(v int64) error {
	rsp := m.regs["rsp"] - wordSize
	if rsp < 0 {
		return ErrStackOverflow
	}
	m.regs["rsp"] = rsp
	return m.store(rsp, v)
}

func (m *Machine) pop() (int64, error) {
	rsp := m.regs["rsp"]
	v, err := m.load(rsp)
	if err != nil {
		return 0, err
	}
	m.regs["rsp"] = rsp + wordSize
	return v, nil
}

func (m *Machine) slot(addr int64) (int, error) {
	switch {
	case addr >= stackWords*wordSize:
		return 0, ErrStackUnderflow
	case addr < 0:
		return 0, ErrStackOverflow
	case addr%wordSize != 0:
		return 0, fmt.Errorf("%w: unaligned address %d", ErrBadOperand, addr)
	}
	return int(addr / wordSize), nil
}

func (m *Machine) load(addr int64) (int64, error) {
	i, err := m.slot(addr)
	if err != nil {
		return 0, err
	}
	return m.stack[i], nil
}

func (m *Machine) store(addr, v int64) error {
	i, err := m.slot(addr)
	if err != nil {
		return err
	}
	m.stack[i] = v
	return nil
}

// read evaluates a register, byte register, memory or immediate operand.
func (m *Machine) read(op string) (int64, error) {
	if registers[op] {
		return m.regs[op], nil
	}
	if op == "al" {
		return m.regs["rax"] & 0xff, nil
	}
	if addr, ok, err := m.address(op); ok {
		if err != nil {
			return 0, err
		}
		return m.load(addr)
	}
	v, err := strconv.ParseInt(op, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadOperand, op)
	}
	return v, nil
}

func (m *Machine) write(op string, v int64) error {
	if registers[op] {
		m.regs[op] = v
		return nil
	}
	if op == "al" {
		m.regs["rax"] = m.regs["rax"]&^0xff | v&0xff
		return nil
	}
	if addr, ok, err := m.address(op); ok {
		if err != nil {
			return err
		}
		return m.store(addr, v)
	}
	return fmt.Errorf("%w: cannot write to %q", ErrBadOperand, op)
}

// address decodes "QWORD [reg]", "QWORD [reg + n]" and "QWORD [reg - n]".
// ok is false when op is not a memory operand at all.
func (m *Machine) address(op string) (addr int64, ok bool, err error) {
	op = strings.TrimSpace(strings.TrimPrefix(op, "QWORD"))
	if !strings.HasPrefix(op, "[") || !strings.HasSuffix(op, "]") {
		return 0, false, nil
	}
	expr := strings.TrimSpace(op[1 : len(op)-1])

	base, offset := expr, "0"
	sign := int64(1)
	if b, o, found := strings.Cut(expr, "+"); found {
		base, offset = b, o
	} else if b, o, found := strings.Cut(expr, "-"); found {
		base, offset, sign = b, o, -1
	}
	base = strings.TrimSpace(base)
	if !registers[base] {
		return 0, true, fmt.Errorf("%w: bad base register in %q", ErrBadOperand, op)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(offset), 10, 64)
	if err != nil {
		return 0, true, fmt.Errorf("%w: bad displacement in %q", ErrBadOperand, op)
	}
	return m.regs[base] + sign*n, true, nil
}

func want(ops []string, n int) error {
	if len(ops) != n {
		return fmt.Errorf("%w: want %d operands, got %d", ErrBadOperand, n, len(ops))
	}
	return nil
}
