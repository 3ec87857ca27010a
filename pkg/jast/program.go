// Package jast defines the Java AST the optimizer works on.
//
// A Program owns every method and hands out variable identities. Statement
// and expression nodes are plain structs linked by pointers; identity is
// pointer identity, which is what the change list and the CFG rely on.
package jast

import "fmt"

// Type is a Java type name. Primitive types use their keyword; reference
// types use their simple class name.
type Type string

const (
	TypeInt     Type = "int"
	TypeLong    Type = "long"
	TypeChar    Type = "char"
	TypeBoolean Type = "boolean"
	TypeString  Type = "String"
	TypeNull    Type = "null"
	TypeVoid    Type = "void"
	TypeUnknown Type = "Object"
)

// IsIntegral reports whether values of t fold as 32 or 64 bit integers.
func (t Type) IsIntegral() bool {
	switch t {
	case TypeInt, TypeLong, TypeChar, "short", "byte":
		return true
	}
	return false
}

// IsPrimitive reports whether t is a Java primitive type.
func (t Type) IsPrimitive() bool {
	switch t {
	case TypeInt, TypeLong, TypeChar, TypeBoolean, "short", "byte", "float", "double":
		return true
	}
	return false
}

// VarKind distinguishes method parameters from locals.
type VarKind int

const (
	LocalVar VarKind = iota
	ParamVar
)

func (k VarKind) String() string {
	if k == ParamVar {
		return "param"
	}
	return "local"
}

// Variable is a local or parameter. IDs are unique within a Program and
// increase in declaration order.
type Variable struct {
	ID   int
	Name string
	Type Type
	Kind VarKind
}

func (v *Variable) String() string {
	return v.Name
}

// Method is a single method with an optional body. External methods (those
// only referenced by calls) have a nil Body.
type Method struct {
	Name       string
	ReturnType Type
	Params     []*Variable
	Body       *Block
	Static     bool
	Class      string
}

// Signature renders the method header as Java source.
func (m *Method) Signature() string {
	params := ""
	for i, p := range m.Params {
		if i > 0 {
			params += ", "
		}
		params += fmt.Sprintf("%s %s", p.Type, p.Name)
	}
	mods := ""
	if m.Static {
		mods = "static "
	}
	return fmt.Sprintf("%s%s %s(%s)", mods, m.ReturnType, m.Name, params)
}

// Program is the arena for one compilation unit.
type Program struct {
	Methods []*Method
	nextVar int
}

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{}
}

// NewVariable allocates a variable with the next program-wide ID.
func (p *Program) NewVariable(name string, typ Type, kind VarKind) *Variable {
	v := &Variable{ID: p.nextVar, Name: name, Type: typ, Kind: kind}
	p.nextVar++
	return v
}

// NumVariables returns the number of variables allocated so far. Every
// Variable.ID is below this bound.
func (p *Program) NumVariables() int {
	return p.nextVar
}

// AddMethod registers m with the program.
func (p *Program) AddMethod(m *Method) {
	p.Methods = append(p.Methods, m)
}

// Method returns the first method with the given name, or nil.
func (p *Program) Method(name string) *Method {
	for _, m := range p.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}
