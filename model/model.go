// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package model is the validated description of a set of services, the
// input to the compiler.
package model

// Visibility controls whether generated identifiers are exported
type Visibility int

const (
	Public Visibility = iota
	Private
)

func (v Visibility) String() string {
	if v == Private {
		return "private"
	}
	return "public"
}

// Schema is every service of one description file. Nested references are
// resolved by service name within the schema.
type Schema struct {
	Package  string
	Imports  []string
	Services []*ServiceDefinition

	byName map[string]*ServiceDefinition
}

// Service looks a service up by name
func (s *Schema) Service(name string) (*ServiceDefinition, bool) {
	def, ok := s.byName[name]
	return def, ok
}

// TypeParam is a type parameter of a generic service
type TypeParam struct {
	Name       string
	Constraint string
}

// ServiceDefinition is one service: a named, ordered set of methods.
type ServiceDefinition struct {
	Name       string
	Visibility Visibility
	TypeParams []TypeParam
	Doc        string
	Methods    []*Method
}

// Generic reports whether the service has type parameters
func (s *ServiceDefinition) Generic() bool {
	return len(s.TypeParams) > 0
}

// Method is one operation of a service. Its name is the wire tag.
type Method struct {
	Name   string
	Doc    string
	Params []Parameter
	Return Return
}

// Nested reports whether the method returns a sub-service
func (m *Method) Nested() bool {
	return m.Return.Kind == ReturnNested
}

// Parameter is one positional argument. Type is a Go type expression.
type Parameter struct {
	Name string
	Type string
}

// ReturnKind tells a value return from a nested service return
type ReturnKind int

const (
	ReturnValue ReturnKind = iota
	ReturnNested
)

// Return is what a method produces: a value of Type (empty for unit), or a
// handle to the service Nested names.
type Return struct {
	Kind   ReturnKind
	Type   string
	Nested *NestedRef
}

// Unit reports a value return with no value
func (r Return) Unit() bool {
	return r.Kind == ReturnValue && r.Type == ""
}

// NestedRef names the sub-service a nested method returns. Def is filled in
// when the reference is resolved and points into the same Schema.
type NestedRef struct {
	Service  string
	TypeArgs []string
	Def      *ServiceDefinition
}
