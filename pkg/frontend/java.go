// Package frontend turns Java source into the jast model using tree-sitter.
//
// Only the subset the optimizer understands is accepted: static and instance
// methods over primitive and String locals, structured control flow,
// try/catch/finally, switch with labels, and calls. Anything else yields an
// error wrapping ErrUnsupported.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/l3aro/go-gflow/pkg/jast"
)

var (
	// ErrUnsupported is returned for Java constructs outside the subset.
	ErrUnsupported = errors.New("unsupported construct")
	// ErrSyntax is returned when tree-sitter reports a parse error.
	ErrSyntax = errors.New("syntax error")
)

// ParseFile reads and parses a Java source file.
func ParseFile(ctx context.Context, path string) (*jast.Program, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	prog, err := Parse(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// Parse parses a compilation unit and returns a program holding every
// method of every class in it.
func Parse(ctx context.Context, content []byte) (*jast.Program, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if bad := findError(root); bad != nil {
			return nil, fmt.Errorf("line %d: %w near %q", bad.StartPoint().Row+1, ErrSyntax, excerpt(bad.Content(content)))
		}
		return nil, ErrSyntax
	}

	p := &javaParser{
		content: content,
		prog:    jast.NewProgram(),
		bodies:  make(map[*jast.Method]*sitter.Node),
	}
	p.collectMethods(root, "")
	for _, m := range p.prog.Methods {
		if err := p.methodBody(m); err != nil {
			return nil, fmt.Errorf("method %s: %w", m.Name, err)
		}
	}
	return p.prog, nil
}

// ParseSnippet wraps body in a static method of a synthetic class and
// parses it. params uses Java syntax, such as "boolean b, int p".
func ParseSnippet(ctx context.Context, returnType, params, body string) (*jast.Program, *jast.Method, error) {
	src := fmt.Sprintf("class EntryPoint {\n  static %s onModuleLoad(%s) {\n%s\n  }\n}\n", returnType, params, body)
	prog, err := Parse(ctx, []byte(src))
	if err != nil {
		return nil, nil, err
	}
	return prog, prog.Method("onModuleLoad"), nil
}

type javaParser struct {
	content []byte
	prog    *jast.Program
	bodies  map[*jast.Method]*sitter.Node
	scopes  []map[string]*jast.Variable
}

func (p *javaParser) nodeText(n *sitter.Node) string {
	return n.Content(p.content)
}

func (p *javaParser) unsupported(n *sitter.Node) error {
	return fmt.Errorf("line %d: %w: %s", n.StartPoint().Row+1, ErrUnsupported, n.Type())
}

// collectMethods registers every method header before any body is parsed so
// calls can resolve to methods declared later in the file.
func (p *javaParser) collectMethods(n *sitter.Node, class string) {
	switch n.Type() {
	case "class_declaration", "enum_declaration", "record_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			class = p.nodeText(name)
		}
	case "method_declaration":
		p.methodHeader(n, class)
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		p.collectMethods(n.NamedChild(i), class)
	}
}

func (p *javaParser) methodHeader(n *sitter.Node, class string) {
	m := &jast.Method{
		Name:       p.nodeText(n.ChildByFieldName("name")),
		ReturnType: jast.Type(p.nodeText(n.ChildByFieldName("type"))),
		Class:      class,
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "modifiers" {
			m.Static = strings.Contains(p.nodeText(c), "static")
		}
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			param := params.NamedChild(i)
			if param.Type() != "formal_parameter" {
				continue
			}
			name := p.nodeText(param.ChildByFieldName("name"))
			typ := jast.Type(p.nodeText(param.ChildByFieldName("type")))
			m.Params = append(m.Params, p.prog.NewVariable(name, typ, jast.ParamVar))
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		p.bodies[m] = body
	}
	p.prog.AddMethod(m)
}

func (p *javaParser) methodBody(m *jast.Method) error {
	body, ok := p.bodies[m]
	if !ok {
		return nil
	}
	p.pushScope()
	defer p.popScope()
	for _, v := range m.Params {
		p.declare(v)
	}
	b, err := p.block(body)
	if err != nil {
		return err
	}
	m.Body = b
	return nil
}

func (p *javaParser) pushScope() {
	p.scopes = append(p.scopes, make(map[string]*jast.Variable))
}

func (p *javaParser) popScope() {
	p.scopes = p.scopes[:len(p.scopes)-1]
}

func (p *javaParser) declare(v *jast.Variable) {
	p.scopes[len(p.scopes)-1][v.Name] = v
}

func (p *javaParser) lookup(name string) *jast.Variable {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if v, ok := p.scopes[i][name]; ok {
			return v
		}
	}
	return nil
}

func isComment(n *sitter.Node) bool {
	return n.Type() == "line_comment" || n.Type() == "block_comment" || n.Type() == "comment"
}

func findError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := findError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}

func excerpt(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}

func unquoteChar(text string) (uint16, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(text, "'"), "'")
	if inner == `\0` {
		return 0, nil
	}
	r, _, tail, err := strconv.UnquoteChar(inner, '\'')
	if err != nil {
		return 0, err
	}
	if tail != "" {
		return 0, fmt.Errorf("bad character literal %s", text)
	}
	return uint16(r), nil
}

func parseIntLiteral(text string) (jast.Literal, error) {
	text = strings.ReplaceAll(text, "_", "")
	long := strings.HasSuffix(text, "l") || strings.HasSuffix(text, "L")
	text = strings.TrimRight(text, "lL")
	if len(text) > 1 && text[0] == '0' && text[1] >= '0' && text[1] <= '9' {
		text = "0o" + text[1:]
	}
	v, err := strconv.ParseUint(text, 0, 64)
	if err != nil {
		return nil, fmt.Errorf("bad integer literal %s: %w", text, err)
	}
	if long {
		return &jast.LongLiteral{Value: int64(v)}, nil
	}
	return &jast.IntLiteral{Value: int32(uint32(v))}, nil
}
