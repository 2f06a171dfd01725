// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package model

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
)

// RawSchema is a description file as decoded, before validation.
type RawSchema struct {
	Package  string       `toml:"package" yaml:"package" json:"package"`
	Imports  []string     `toml:"imports" yaml:"imports" json:"imports"`
	Services []RawService `toml:"services" yaml:"services" json:"services"`
}

type RawService struct {
	Name        string         `toml:"name" yaml:"name" json:"name"`
	Visibility  string         `toml:"visibility" yaml:"visibility" json:"visibility"`
	Doc         string         `toml:"doc" yaml:"doc" json:"doc"`
	TypeParams  []RawTypeParam `toml:"type_params" yaml:"type_params" json:"type_params"`
	Supertraits []string       `toml:"supertraits" yaml:"supertraits" json:"supertraits"`
	Methods     []RawMethod    `toml:"methods" yaml:"methods" json:"methods"`
}

type RawTypeParam struct {
	Name       string `toml:"name" yaml:"name" json:"name"`
	Constraint string `toml:"constraint" yaml:"constraint" json:"constraint"`
}

type RawMethod struct {
	Name        string     `toml:"name" yaml:"name" json:"name"`
	Doc         string     `toml:"doc" yaml:"doc" json:"doc"`
	Receiver    string     `toml:"receiver" yaml:"receiver" json:"receiver"`
	Modifiers   []string   `toml:"modifiers" yaml:"modifiers" json:"modifiers"`
	DefaultBody bool       `toml:"default_body" yaml:"default_body" json:"default_body"`
	Params      []RawParam `toml:"params" yaml:"params" json:"params"`
	Returns     *RawReturn `toml:"returns" yaml:"returns" json:"returns"`
}

type RawParam struct {
	Name string `toml:"name" yaml:"name" json:"name"`
	Type string `toml:"type" yaml:"type" json:"type"`
}

// RawReturn is either a value type or a list of service bounds. Neither
// means the method returns nothing.
type RawReturn struct {
	Type   string     `toml:"type" yaml:"type" json:"type"`
	Bounds []RawBound `toml:"bounds" yaml:"bounds" json:"bounds"`
}

type RawBound struct {
	Service   string   `toml:"service" yaml:"service" json:"service"`
	TypeArgs  []string `toml:"type_args" yaml:"type_args" json:"type_args"`
	Lifetimes []string `toml:"lifetimes" yaml:"lifetimes" json:"lifetimes"`
}

// Receiver kinds. Only shared receivers describe a callable service.
const (
	ReceiverShared   = "shared"
	ReceiverOwned    = "owned"
	ReceiverMutable  = "mutable"
	ReceiverIndirect = "indirect"
	ReceiverNone     = "none"
)

// Parse validates raw and builds the Schema. The first violation is
// returned as a *ParseError.
func Parse(raw *RawSchema) (*Schema, error) {
	if raw.Package != "" && !token.IsIdentifier(raw.Package) {
		return nil, &ParseError{Kind: ErrInvalidDescription, Detail: fmt.Sprintf("package %q is not an identifier", raw.Package)}
	}
	schema := &Schema{
		Package: raw.Package,
		byName:  make(map[string]*ServiceDefinition, len(raw.Services)),
	}
	for _, imp := range raw.Imports {
		if imp == "" {
			return nil, &ParseError{Kind: ErrInvalidDescription, Detail: "empty import path"}
		}
		schema.Imports = append(schema.Imports, imp)
	}
	for i := range raw.Services {
		def, err := parseService(&raw.Services[i])
		if err != nil {
			return nil, err
		}
		if _, dup := schema.byName[def.Name]; dup {
			return nil, &ParseError{Kind: ErrDuplicateName, Service: def.Name, Detail: "service declared twice"}
		}
		schema.byName[def.Name] = def
		schema.Services = append(schema.Services, def)
	}
	return schema, nil
}

func parseService(raw *RawService) (*ServiceDefinition, error) {
	if !token.IsIdentifier(raw.Name) {
		return nil, &ParseError{Kind: ErrInvalidDescription, Service: raw.Name, Detail: "service name is not an identifier"}
	}
	def := &ServiceDefinition{Name: raw.Name, Doc: raw.Doc}

	switch raw.Visibility {
	case "", "public":
		def.Visibility = Public
	case "private":
		def.Visibility = Private
	default:
		return nil, &ParseError{Kind: ErrInvalidDescription, Service: raw.Name, Detail: fmt.Sprintf("unknown visibility %q", raw.Visibility)}
	}

	seen := make(map[string]bool)
	for _, tp := range raw.TypeParams {
		if !token.IsIdentifier(tp.Name) {
			return nil, &ParseError{Kind: ErrInvalidDescription, Service: raw.Name, Detail: fmt.Sprintf("type parameter %q is not an identifier", tp.Name)}
		}
		if seen[tp.Name] {
			return nil, &ParseError{Kind: ErrDuplicateName, Service: raw.Name, Detail: "type parameter " + tp.Name}
		}
		seen[tp.Name] = true
		constraint := tp.Constraint
		if constraint == "" {
			constraint = "any"
		}
		if !isTypeExpr(constraint) {
			return nil, &ParseError{Kind: ErrInvalidDescription, Service: raw.Name, Detail: fmt.Sprintf("constraint %q is not a type", constraint)}
		}
		def.TypeParams = append(def.TypeParams, TypeParam{Name: tp.Name, Constraint: constraint})
	}

	names := make(map[string]bool, len(raw.Methods))
	for i := range raw.Methods {
		m, err := parseMethod(raw.Name, &raw.Methods[i])
		if err != nil {
			return nil, err
		}
		if names[m.Name] {
			return nil, &ParseError{Kind: ErrDuplicateName, Service: raw.Name, Method: m.Name, Detail: "method declared twice"}
		}
		names[m.Name] = true
		def.Methods = append(def.Methods, m)
	}

	if len(raw.Supertraits) > 0 {
		return nil, &ParseError{Kind: ErrUnsupportedFeature, Service: raw.Name, Detail: fmt.Sprintf("supertraits %v are not supported", raw.Supertraits)}
	}
	return def, nil
}

func parseMethod(service string, raw *RawMethod) (*Method, error) {
	fail := func(kind error, format string, args ...any) (*Method, error) {
		return nil, &ParseError{Kind: kind, Service: service, Method: raw.Name, Detail: fmt.Sprintf(format, args...)}
	}

	if raw.DefaultBody {
		return fail(ErrUnsupportedModifier, "default body is not supported")
	}
	for _, mod := range raw.Modifiers {
		switch mod {
		case "const", "unsafe", "default":
			return fail(ErrUnsupportedModifier, "%s method is not supported", mod)
		default:
			return fail(ErrUnsupportedModifier, "unknown modifier %q", mod)
		}
	}
	switch raw.Receiver {
	case "", ReceiverShared:
	case ReceiverOwned:
		return fail(ErrInvalidReceiver, "cannot take an owned receiver")
	case ReceiverMutable:
		return fail(ErrInvalidReceiver, "cannot take a mutable receiver")
	case ReceiverIndirect:
		return fail(ErrInvalidReceiver, "receiver must be a plain shared reference")
	case ReceiverNone:
		return fail(ErrInvalidReceiver, "missing receiver")
	default:
		return fail(ErrInvalidReceiver, "unknown receiver %q", raw.Receiver)
	}

	if !token.IsIdentifier(raw.Name) {
		return fail(ErrInvalidDescription, "method name is not an identifier")
	}
	m := &Method{Name: raw.Name, Doc: raw.Doc}

	seen := make(map[string]bool, len(raw.Params))
	for _, p := range raw.Params {
		if !isParamName(p.Name) {
			return fail(ErrInvalidDescription, "parameter name %q is not an identifier", p.Name)
		}
		if seen[p.Name] {
			return fail(ErrDuplicateName, "parameter %s declared twice", p.Name)
		}
		seen[p.Name] = true
		if !isTypeExpr(p.Type) {
			return fail(ErrInvalidDescription, "parameter %s: %q is not a type", p.Name, p.Type)
		}
		m.Params = append(m.Params, Parameter{Name: p.Name, Type: p.Type})
	}

	ret, err := parseReturn(raw.Returns)
	if err != nil {
		return fail(err.kind, "%s", err.detail)
	}
	m.Return = ret
	return m, nil
}

type returnError struct {
	kind   error
	detail string
}

func parseReturn(raw *RawReturn) (Return, *returnError) {
	if raw == nil || (raw.Type == "" && len(raw.Bounds) == 0) {
		return Return{Kind: ReturnValue}, nil
	}
	if raw.Type != "" && len(raw.Bounds) > 0 {
		return Return{}, &returnError{ErrInvalidReturnType, "cannot return both a type and a service"}
	}
	if raw.Type != "" {
		if !isTypeExpr(raw.Type) {
			return Return{}, &returnError{ErrInvalidDescription, fmt.Sprintf("return %q is not a type", raw.Type)}
		}
		return Return{Kind: ReturnValue, Type: raw.Type}, nil
	}
	if len(raw.Bounds) > 1 {
		return Return{}, &returnError{ErrInvalidReturnType, "cannot specify multiple bounds"}
	}
	bound := raw.Bounds[0]
	if len(bound.Lifetimes) > 0 {
		return Return{}, &returnError{ErrInvalidReturnType, "lifetimes are not supported"}
	}
	if !token.IsIdentifier(bound.Service) {
		return Return{}, &returnError{ErrInvalidDescription, fmt.Sprintf("bound %q is not a service name", bound.Service)}
	}
	ref := &NestedRef{Service: bound.Service}
	for _, arg := range bound.TypeArgs {
		if !isTypeExpr(arg) {
			return Return{}, &returnError{ErrInvalidDescription, fmt.Sprintf("type argument %q is not a type", arg)}
		}
		ref.TypeArgs = append(ref.TypeArgs, arg)
	}
	return Return{Kind: ReturnNested, Nested: ref}, nil
}

// isParamName accepts identifiers and Go keywords. Parameters are
// positional on the wire and the compiler renames keywords locally.
func isParamName(s string) bool {
	return token.IsIdentifier(s) || token.IsKeyword(s)
}

// isTypeExpr reports whether s parses as a Go type expression
func isTypeExpr(s string) bool {
	if s == "" {
		return false
	}
	expr, err := parser.ParseExpr(s)
	if err != nil {
		return false
	}
	return typeLike(expr)
}

func typeLike(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.Ident:
		return true
	case *ast.SelectorExpr:
		_, ok := e.X.(*ast.Ident)
		return ok
	case *ast.StarExpr:
		return typeLike(e.X)
	case *ast.ParenExpr:
		return typeLike(e.X)
	case *ast.ArrayType:
		return typeLike(e.Elt)
	case *ast.MapType:
		return typeLike(e.Key) && typeLike(e.Value)
	case *ast.ChanType:
		return typeLike(e.Value)
	case *ast.IndexExpr:
		return typeLike(e.X) && typeLike(e.Index)
	case *ast.IndexListExpr:
		for _, idx := range e.Indices {
			if !typeLike(idx) {
				return false
			}
		}
		return typeLike(e.X)
	case *ast.FuncType, *ast.InterfaceType, *ast.StructType:
		return true
	default:
		return false
	}
}
