// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package compiler turns a model.Schema into Go source: the wire unions,
// codec table, server interface, handler and both client families of every
// service, with nested services tunneled through their parent.
package compiler

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/luxfi/link/model"
)

// DefaultRuntimeImport is the import path of the runtime package
const DefaultRuntimeImport = "github.com/luxfi/link"

// Options control code generation
type Options struct {
	// Package overrides the schema's package name
	Package string

	// RuntimeImport is the runtime import path, DefaultRuntimeImport if empty
	RuntimeImport string

	// Source names the description file in the generated code notice
	Source string

	// Header is placed above the generated code notice, one comment line per
	// line of text
	Header string
}

// Compile generates the Go source for every service of schema. Nested
// references are resolved first, so schema must come from model.Parse.
// Output is deterministic: the same schema and options give the same bytes.
func Compile(schema *model.Schema, opts Options) ([]byte, error) {
	if err := resolve(schema); err != nil {
		return nil, err
	}
	file, err := buildFile(schema, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, file); err != nil {
		return nil, fmt.Errorf("compiler: execute template: %w", err)
	}
	src, err := imports.Process(file.Package+"_link.go", buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("compiler: format generated source: %w", err)
	}
	return src, nil
}

type fileView struct {
	Header        []string
	Source        string
	Package       string
	Imports       []string
	RuntimeImport string
	RuntimeAlias  string
	Services      []*serviceView
}

type serviceView struct {
	Name    string
	Doc     []string
	Generic bool
	TParams string // [T any]
	TArgs   string // [T]

	Request        string
	Response       string
	ReqMarker      string
	RespMarker     string
	Protocol       string
	BuildProtocol  string
	ProtoVar       string
	Server         string
	Route          string
	BuildDispatch  string
	DispatchVar    string
	Handler        string
	NewHandler     string
	Client         string
	NewClient      string
	AsyncClient    string
	NewAsyncClient string

	Methods []*methodView
}

type methodView struct {
	Name   string
	Doc    []string
	GoName string
	Const  string

	Request  string
	Response string
	Params   []paramView

	Unit         bool
	ValueType    string
	ServerResult string

	ParamList     string // name string, id uint64
	CallArgs      string // name, id
	FieldInit     string // Name: name, ID: id
	ReqFields     string // r.Name, r.ID
	ArgsExpr      string // r.Name, r.ID, link.EmbedRequest(r.Inner)
	DecodeTargets string // &r.Name, &r.ID, link.NestedRequest(&r.Inner, ...)
	DecodeResult  string // &r.Value
	OuterInit     string // ID: args.ID, Inner: inner

	Nested *nestedView
}

type nestedView struct {
	Service     string
	Request     string // instantiated, e.g. UserServiceRequest or resourcesRequest[Book]
	Response    string
	Handler     string // link.Handler[...] of the nested service
	Protocol    string // call expression for its codec table
	Client      string
	NewClient   string
	AsyncClient string
	Args        string
	ToInner     string
	ToOuter     string
}

type paramView struct {
	Name  string
	Field string
	Local string
	Type  string
}

func buildFile(schema *model.Schema, opts Options) (*fileView, error) {
	pkg := opts.Package
	if pkg == "" {
		pkg = schema.Package
	}
	if pkg == "" {
		return nil, ErrNoPackage
	}
	runtime := opts.RuntimeImport
	if runtime == "" {
		runtime = DefaultRuntimeImport
	}
	file := &fileView{
		Header:        commentLines(opts.Header),
		Source:        opts.Source,
		Package:       pkg,
		Imports:       schema.Imports,
		RuntimeImport: runtime,
	}
	if path.Base(runtime) != "link" {
		file.RuntimeAlias = "link"
	}

	for _, svc := range schema.Services {
		file.Services = append(file.Services, buildService(svc))
	}
	if err := checkCollisions(file); err != nil {
		return nil, err
	}
	return file, nil
}

// typeParams renders [T any, K comparable] and [T, K]
func typeParams(tps []model.TypeParam) (params, args string) {
	if len(tps) == 0 {
		return "", ""
	}
	ps := make([]string, len(tps))
	as := make([]string, len(tps))
	for i, tp := range tps {
		ps[i] = tp.Name + " " + tp.Constraint
		as[i] = tp.Name
	}
	return "[" + strings.Join(ps, ", ") + "]", "[" + strings.Join(as, ", ") + "]"
}

func typeArgs(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return "[" + strings.Join(args, ", ") + "]"
}

func buildService(svc *model.ServiceDefinition) *serviceView {
	base := exportedName(svc.Name)
	vis := func(ident string) string { return visible(svc.Visibility, ident) }
	tparams, targs := typeParams(svc.TypeParams)

	sv := &serviceView{
		Name:    svc.Name,
		Doc:     docLines(svc.Doc),
		Generic: svc.Generic(),
		TParams: tparams,
		TArgs:   targs,

		Request:        vis(base + "Request"),
		Response:       vis(base + "Response"),
		ReqMarker:      "is" + base + "Request",
		RespMarker:     "is" + base + "Response",
		Protocol:       vis(base + "Protocol"),
		BuildProtocol:  "build" + base + "Protocol",
		ProtoVar:       "proto" + base,
		Server:         vis(base + "Server"),
		Route:          "route" + base,
		BuildDispatch:  "build" + base + "Dispatch",
		DispatchVar:    "dispatch" + base,
		Handler:        vis(base + "Handler"),
		NewHandler:     vis("New" + base + "Handler"),
		Client:         vis(base + "Client"),
		NewClient:      vis("New" + base + "Client"),
		AsyncClient:    vis(base + "AsyncClient"),
		NewAsyncClient: vis("New" + base + "AsyncClient"),
	}

	for _, m := range svc.Methods {
		goName := exportedName(m.Name)
		mv := &methodView{
			Name:     m.Name,
			Doc:      docLines(m.Doc),
			GoName:   goName,
			Const:    vis(base + goName + "Method"),
			Request:  vis(base + goName + "Request"),
			Response: vis(base + goName + "Response"),
		}
		for _, p := range m.Params {
			mv.Params = append(mv.Params, paramView{
				Name:  p.Name,
				Field: exportedName(p.Name),
				Local: localName(p.Name),
				Type:  p.Type,
			})
		}
		switch {
		case m.Nested():
			mv.Nested = buildNested(lowerFirst(base)+goName, m.Return.Nested)
			mv.ValueType = mv.Nested.Response
			mv.ServerResult = " " + mv.Nested.Handler
		case m.Return.Unit():
			mv.Unit = true
			mv.ValueType = "link.Unit"
		default:
			mv.ValueType = m.Return.Type
			mv.ServerResult = " " + m.Return.Type
		}
		mv.renderLists()
		sv.Methods = append(sv.Methods, mv)
	}
	return sv
}

// renderLists precomputes the comma separated lists the template splices
// into signatures, literals and decoder calls.
func (mv *methodView) renderLists() {
	var params, calls, inits, reqFields, args, targets, outer []string
	for _, p := range mv.Params {
		params = append(params, p.Local+" "+p.Type)
		calls = append(calls, p.Local)
		inits = append(inits, p.Field+": "+p.Local)
		reqFields = append(reqFields, "r."+p.Field)
		args = append(args, "r."+p.Field)
		targets = append(targets, "&r."+p.Field)
		outer = append(outer, p.Field+": args."+p.Field)
	}
	mv.DecodeResult = "&r.Value"
	if n := mv.Nested; n != nil {
		args = append(args, "link.EmbedRequest(r.Inner)")
		targets = append(targets, "link.NestedRequest(&r.Inner, "+n.Protocol+")")
		outer = append(outer, "Inner: inner")
		mv.DecodeResult = "link.NestedResponse(&r.Value, " + n.Protocol + ")"
	}
	mv.ParamList = strings.Join(params, ", ")
	mv.CallArgs = strings.Join(calls, ", ")
	mv.FieldInit = strings.Join(inits, ", ")
	mv.ReqFields = strings.Join(reqFields, ", ")
	mv.ArgsExpr = strings.Join(args, ", ")
	mv.DecodeTargets = strings.Join(targets, ", ")
	mv.OuterInit = strings.Join(outer, ", ")
}

func buildNested(prefix string, ref *model.NestedRef) *nestedView {
	def := ref.Def
	base := exportedName(def.Name)
	vis := func(ident string) string { return visible(def.Visibility, ident) }
	targs := typeArgs(ref.TypeArgs)

	request := vis(base+"Request") + targs
	response := vis(base+"Response") + targs
	return &nestedView{
		Service:     def.Name,
		Request:     request,
		Response:    response,
		Handler:     "link.Handler[" + request + ", " + response + "]",
		Protocol:    vis(base+"Protocol") + targs + "()",
		Client:      vis(base+"Client") + targs,
		NewClient:   vis("New"+base+"Client") + targs,
		AsyncClient: vis(base+"AsyncClient") + targs,
		Args:        prefix + "Args",
		ToInner:     prefix + "ToInner",
		ToOuter:     prefix + "ToOuter",
	}
}

// checkCollisions rejects schemas whose declared names map to the same Go
// identifier, such as get_todo and GetTodo.
func checkCollisions(file *fileView) error {
	top := make(map[string]string)
	declare := func(ident, owner string) error {
		if ident == "" {
			return fmt.Errorf("%w: %s has no Go name", ErrIdentifierCollision, owner)
		}
		if prev, dup := top[ident]; dup {
			return fmt.Errorf("%w: %s and %s both generate %s", ErrIdentifierCollision, prev, owner, ident)
		}
		top[ident] = owner
		return nil
	}

	for _, svc := range file.Services {
		for _, ident := range []string{
			svc.Request, svc.Response, svc.Protocol, svc.BuildProtocol, svc.ProtoVar,
			svc.Server, svc.Route, svc.BuildDispatch, svc.DispatchVar, svc.Handler,
			svc.NewHandler, svc.Client, svc.NewClient, svc.AsyncClient, svc.NewAsyncClient,
		} {
			if err := declare(ident, svc.Name); err != nil {
				return err
			}
		}
		for _, m := range svc.Methods {
			owner := svc.Name + "." + m.Name
			if m.GoName == "" {
				return fmt.Errorf("%w: %s has no Go name", ErrIdentifierCollision, owner)
			}
			idents := []string{m.Const, m.Request, m.Response}
			if m.Nested != nil {
				idents = append(idents, m.Nested.Args, m.Nested.ToInner, m.Nested.ToOuter)
			}
			for _, ident := range idents {
				if err := declare(ident, owner); err != nil {
					return err
				}
			}
			if err := checkFields(owner, m); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkFields rejects parameters that clash with each other or with the
// members every request case has.
func checkFields(owner string, m *methodView) error {
	fields := map[string]string{
		"Method": "the Method method",
		"Args":   "the Args method",
	}
	if m.Nested != nil {
		fields["Inner"] = "the nested request"
	}
	for _, p := range m.Params {
		if p.Field == "" {
			return fmt.Errorf("%w: %s parameter %s has no Go name", ErrIdentifierCollision, owner, p.Name)
		}
		if prev, dup := fields[p.Field]; dup {
			return fmt.Errorf("%w: %s parameter %s and %s both generate %s", ErrIdentifierCollision, owner, p.Name, prev, p.Field)
		}
		fields[p.Field] = "parameter " + p.Name
	}
	return nil
}

func docLines(doc string) []string {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return nil
	}
	return strings.Split(doc, "\n")
}

func commentLines(text string) []string {
	var lines []string
	for _, line := range docLines(text) {
		line = strings.TrimRight(line, " \t")
		if strings.HasPrefix(line, "//") {
			lines = append(lines, line)
			continue
		}
		if line == "" {
			lines = append(lines, "//")
			continue
		}
		lines = append(lines, "// "+line)
	}
	return lines
}
