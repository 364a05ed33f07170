package sexy

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputType is the language tag of a test's input fence.
type InputType string

const (
	InputTypeEmeraldExpr    InputType = "emerald-expr"
	InputTypeEmeraldProgram InputType = "emerald-program"
)

// AssertionType is the language tag of an assertion fence.
type AssertionType string

const (
	AssertionTypeAST          AssertionType = "ast"
	AssertionTypeExecute      AssertionType = "execute"
	AssertionTypeCompileError AssertionType = "compile-error"
	AssertionTypeAsm          AssertionType = "asm"
)

type Assertion struct {
	Type    AssertionType
	Content string
	// ParsedSexy is set for ast assertions only.
	ParsedSexy *Node
}

// TestCase is one "Test: <name>" section of a markdown file.
type TestCase struct {
	Name       string
	Input      string
	InputType  InputType
	Line       int // markdown line of the first input line, for failure messages
	Assertions []Assertion
}

const testHeadingPrefix = "Test: "

// ExtractTestCases collects the test cases of a markdown document. A test
// starts at a heading "Test: <name>" and holds exactly one input fence
// followed by one or more assertion fences. Untagged code blocks are prose
// and are ignored everywhere.
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	source := []byte(markdownContent)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	x := &extractor{source: source}
	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			return ast.WalkContinue, x.heading(n)
		case *ast.FencedCodeBlock:
			if err := x.fence(n); err != nil {
				return ast.WalkStop, err
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}
	if err := x.finish(); err != nil {
		return nil, err
	}
	return x.cases, nil
}

type extractor struct {
	source  []byte
	cases   []TestCase
	current *TestCase
}

func (x *extractor) heading(h *ast.Heading) error {
	title := nodeText(h, x.source)
	name, ok := strings.CutPrefix(title, testHeadingPrefix)
	if !ok {
		return nil
	}
	if err := x.finish(); err != nil {
		return err
	}
	x.current = &TestCase{Name: name}
	return nil
}

// finish validates and stores the test case in progress, if any.
func (x *extractor) finish() error {
	tc := x.current
	if tc == nil {
		return nil
	}
	x.current = nil
	switch {
	case tc.Input == "":
		return fmt.Errorf("test '%s' has no input fence", tc.Name)
	case len(tc.Assertions) == 0:
		return fmt.Errorf("test '%s' has no assertion fences", tc.Name)
	}
	x.cases = append(x.cases, *tc)
	return nil
}

func (x *extractor) fence(block *ast.FencedCodeBlock) error {
	lang := string(block.Language(x.source))
	if lang == "" {
		return nil
	}
	line := lineOf(block, x.source)
	tc := x.current

	if tc == nil {
		if isInputFence(lang) || isAssertionFence(lang) {
			return fmt.Errorf("line %d: %s fence found outside of test case", line, lang)
		}
		return fmt.Errorf("line %d: unknown fence language '%s' found outside of test case", line, lang)
	}

	content := strings.TrimRight(blockContent(block, x.source), "\n")
	switch {
	case isInputFence(lang):
		if tc.Input != "" {
			return fmt.Errorf("line %d: multiple input fences found in test '%s'", line, tc.Name)
		}
		tc.Input, tc.InputType, tc.Line = content, InputType(lang), line

	case isAssertionFence(lang):
		a := Assertion{Type: AssertionType(lang), Content: content}
		// execute, compile-error and asm compare plain text.
		if a.Type == AssertionTypeAST {
			parsed, err := Parse(content)
			if err != nil {
				return fmt.Errorf("line %d: failed to parse Sexy assertion in test '%s': %w", line, tc.Name, err)
			}
			a.ParsedSexy = parsed
		}
		tc.Assertions = append(tc.Assertions, a)

	default:
		return fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, lang, tc.Name)
	}
	return nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); entering && ok {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func blockContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := range lines.Len() {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

func isInputFence(lang string) bool {
	switch InputType(lang) {
	case InputTypeEmeraldExpr, InputTypeEmeraldProgram:
		return true
	}
	return false
}

func isAssertionFence(lang string) bool {
	switch AssertionType(lang) {
	case AssertionTypeAST, AssertionTypeExecute, AssertionTypeCompileError, AssertionTypeAsm:
		return true
	}
	return false
}

// lineOf returns the 1-based line of the node's first content line.
func lineOf(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	start := min(node.Lines().At(0).Start, len(source))
	return bytes.Count(source[:start], []byte("\n")) + 1
}
