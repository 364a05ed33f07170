package emerald

import (
	"fmt"
	"strconv"
	"strings"
)

const wordSize = 8

// Target selects the platform conventions of the emitted assembly.
type Target int

const (
	TargetLinux Target = iota
	TargetWindows
)

func (t Target) String() string {
	switch t {
	case TargetLinux:
		return "linux"
	case TargetWindows:
		return "windows"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// ParseTarget converts "linux" or "windows" to a Target.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(s) {
	case "linux", "elf":
		return TargetLinux, nil
	case "windows", "win64":
		return TargetWindows, nil
	default:
		return 0, fmt.Errorf("unknown target %q (want linux or windows)", s)
	}
}

// EntryPoint is the global symbol execution starts at.
func (t Target) EntryPoint() string {
	if t == TargetWindows {
		return "start"
	}
	return "_start"
}

// labelManager hands out unique jump labels.
type labelManager struct {
	next int
}

func (m *labelManager) nextLabel() string {
	l := "L" + strconv.Itoa(m.next)
	m.next++
	return l
}

// asmBuilder writes NASM source one line at a time.
type asmBuilder struct {
	out strings.Builder
}

func (b *asmBuilder) instr(op string, operands ...string) {
	b.out.WriteString("\t")
	b.out.WriteString(op)
	if len(operands) > 0 {
		b.out.WriteString(" ")
		b.out.WriteString(strings.Join(operands, ", "))
	}
	b.out.WriteString("\n")
}

func (b *asmBuilder) line(s string) {
	b.out.WriteString(s)
	b.out.WriteString("\n")
}

func (b *asmBuilder) label(name string) { b.line(name + ":") }

func (b *asmBuilder) push(src string) { b.instr("push", src) }
func (b *asmBuilder) pop(dst string) { b.instr("pop", dst) }
func (b *asmBuilder) mov(dst, src string) { b.instr("mov", dst, src) }
func (b *asmBuilder) add(dst, src string) { b.instr("add", dst, src) }
func (b *asmBuilder) sub(dst, src string) { b.instr("sub", dst, src) }
func (b *asmBuilder) cmp(lhs, rhs string) { b.instr("cmp", lhs, rhs) }
func (b *asmBuilder) jump(label string) { b.instr("jmp", label) }
func (b *asmBuilder) jumpIfEqual(label string) { b.instr("je", label) }
func (b *asmBuilder) set(cc, dst string) { b.instr("set"+cc, dst) }
func (b *asmBuilder) movzx(dst, src string) { b.instr("movzx", dst, src) }
func (b *asmBuilder) String() string { return b.out.String() }
func (b *asmBuilder) stackSlot(offset int) string {
	return "QWORD [rsp + " + strconv.Itoa(offset) + "]"
}

// header writes the entry-point preamble for target.
func (b *asmBuilder) header(target Target) {
	b.line("global " + target.EntryPoint())
	if target == TargetWindows {
		b.line("extern ExitProcess")
		b.line("")
		b.line("section .text")
	}
	b.line("")
	b.label(target.EntryPoint())
}

// exitRegister is where the process exit code has to be before exit.
func exitRegister(target Target) string {
	if target == TargetWindows {
		return "rcx"
	}
	return "rdi"
}

// terminate ends the process with the exit code already in exitRegister.
func (b *asmBuilder) terminate(target Target) {
	switch target {
	case TargetWindows:
		b.instr("and", "rsp", "-16")
		b.sub("rsp", "32")
		b.instr("call", "ExitProcess")
	default:
		b.mov("rax", "60")
		b.instr("syscall")
	}
}

// exitSuccess ends the process with exit code 0.
func (b *asmBuilder) exitSuccess(target Target) {
	b.mov(exitRegister(target), "0")
	b.terminate(target)
}
