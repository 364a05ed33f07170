// Package x86sim interprets the subset of x86-64 NASM that the Emerald code
// generator emits. It exists so that compiled programs can be executed
// without an assembler, a linker or an x86-64 host.
package x86sim

import (
	"fmt"
	"strings"
)

// Instruction is one parsed line of assembly.
type Instruction struct {
	Line     int
	Mnemonic string
	Operands []string
}

func (in Instruction) String() string {
	if len(in.Operands) == 0 {
		return in.Mnemonic
	}
	return in.Mnemonic + " " + strings.Join(in.Operands, ", ")
}

// Program is assembly text resolved into a flat instruction list.
type Program struct {
	Instructions []Instruction
	Labels       map[string]int // label -> index into Instructions
	Entry        string         // symbol named by the global directive
}

// Parse resolves labels and splits every instruction into its mnemonic and
// operands. Directives (global, extern, section) are recorded or skipped.
func Parse(text string) (*Program, error) {
	p := &Program{Labels: make(map[string]int)}
	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := raw
		if idx := strings.IndexByte(line, ';'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasSuffix(line, ":") {
			label := strings.TrimSuffix(line, ":")
			if !isLabel(label) {
				return nil, fmt.Errorf("line %d: invalid label %q", lineNo, label)
			}
			if _, exists := p.Labels[label]; exists {
				return nil, fmt.Errorf("line %d: duplicate label %q", lineNo, label)
			}
			p.Labels[label] = len(p.Instructions)
			continue
		}

		mnemonic, rest, _ := strings.Cut(line, " ")
		mnemonic = strings.ToLower(mnemonic)
		rest = strings.TrimSpace(rest)

		switch mnemonic {
		case "global":
			p.Entry = rest
			continue
		case "extern", "section":
			continue
		}

		var operands []string
		if rest != "" {
			for _, op := range strings.Split(rest, ",") {
				operands = append(operands, strings.TrimSpace(op))
			}
		}
		p.Instructions = append(p.Instructions, Instruction{Line: lineNo, Mnemonic: mnemonic, Operands: operands})
	}

	if p.Entry == "" {
		return nil, fmt.Errorf("no global entry point")
	}
	if _, ok := p.Labels[p.Entry]; !ok {
		return nil, fmt.Errorf("entry point %q is not defined", p.Entry)
	}
	return p, nil
}

func isLabel(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_' || c == '.' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z'):
		case i > 0 && '0' <= c && c <= '9':
		default:
			return false
		}
	}
	return true
}
