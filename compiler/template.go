// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compiler

import (
	"strings"
	"text/template"
)

var fileTemplate = template.Must(template.New("file").Funcs(template.FuncMap{
	"comment": func(indent string, lines []string) string {
		var b strings.Builder
		for _, line := range lines {
			b.WriteString(indent)
			if line = strings.TrimRight(line, " \t"); line == "" {
				b.WriteString("//\n")
				continue
			}
			b.WriteString("// ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		return b.String()
	},
}).Parse(fileText))

const fileText = `
{{- range .Header}}{{.}}
{{end}}{{if .Header}}
{{end}}// Code generated by linkgen{{with .Source}} from {{.}}{{end}}. DO NOT EDIT.

package {{.Package}}
{{if .Services}}
import (
	"context"
{{- range .Imports}}
	{{printf "%q" .}}
{{- end}}

	{{with .RuntimeAlias}}{{.}} {{end}}{{printf "%q" .RuntimeImport}}
)
{{range .Services}}{{template "service" .}}{{end}}
{{- end}}`

const serviceText = `
// Wire tags of {{.Name}}.
const (
{{- range .Methods}}
	{{.Const}} = {{printf "%q" .Name}}
{{- end}}
)

// {{.Request}} is a request to {{.Name}}, one case per method.
type {{.Request}}{{.TParams}} interface {
	link.Request
	{{.ReqMarker}}()
}

// {{.Response}} is a response from {{.Name}}, one case per method.
type {{.Response}}{{.TParams}} interface {
	link.Response
	{{.RespMarker}}()
}
{{range .Methods}}
// {{.Request}} is the {{.Name}} request.
type {{.Request}}{{$.TParams}} struct {
{{- range .Params}}
	{{.Field}} {{.Type}}
{{- end}}
{{- with .Nested}}
	Inner {{.Request}}
{{- end}}
}

func ({{.Request}}{{$.TArgs}}) Method() string { return {{.Const}} }

func (r {{.Request}}{{$.TArgs}}) Args() []any { return []any{ {{- .ArgsExpr -}} } }

func ({{.Request}}{{$.TArgs}}) {{$.ReqMarker}}() {}

// {{.Response}} is the {{.Name}} response.
type {{.Response}}{{$.TParams}} struct {
	Value {{.ValueType}}
}

func ({{.Response}}{{$.TArgs}}) Method() string { return {{.Const}} }

func (r {{.Response}}{{$.TArgs}}) Result() any { return {{if .Nested}}link.EmbedResponse(r.Value){{else}}r.Value{{end}} }

func ({{.Response}}{{$.TArgs}}) {{$.RespMarker}}() {}
{{end}}
func {{.BuildProtocol}}{{.TParams}}() *link.Protocol[{{.Request}}{{.TArgs}}, {{.Response}}{{.TArgs}}] {
	return link.NewProtocol[{{.Request}}{{.TArgs}}, {{.Response}}{{.TArgs}}]({{printf "%q" .Name}},
{{- range .Methods}}
		link.MethodCodec[{{$.Request}}{{$.TArgs}}, {{$.Response}}{{$.TArgs}}]{
			Method: {{.Const}},
			DecodeRequest: func(a *link.ArgDecoder) ({{$.Request}}{{$.TArgs}}, error) {
				var r {{.Request}}{{$.TArgs}}
				err := a.Decode({{.DecodeTargets}})
				return r, err
			},
			DecodeResponse: func(d *link.ResultDecoder) ({{$.Response}}{{$.TArgs}}, error) {
				var r {{.Response}}{{$.TArgs}}
				err := d.Decode({{.DecodeResult}})
				return r, err
			},
		},
{{- end}}
	)
}
{{if .Generic}}
// {{.Protocol}} returns the wire codec table of {{.Name}}.
func {{.Protocol}}{{.TParams}}() *link.Protocol[{{.Request}}{{.TArgs}}, {{.Response}}{{.TArgs}}] {
	return {{.BuildProtocol}}{{.TArgs}}()
}
{{else}}
var {{.ProtoVar}} = {{.BuildProtocol}}()

// {{.Protocol}} returns the wire codec table of {{.Name}}.
func {{.Protocol}}() *link.Protocol[{{.Request}}, {{.Response}}] {
	return {{.ProtoVar}}
}
{{end}}
{{if .Doc}}{{comment "" .Doc}}{{else}}// {{.Server}} implements {{.Name}}.
{{end -}}
type {{.Server}}{{.TParams}} interface {
{{- range .Methods}}
{{comment "\t" .Doc}}	{{.GoName}}(ctx context.Context{{with .ParamList}}, {{.}}{{end}}){{.ServerResult}}
{{- end}}
}

type {{.Route}}{{.TParams}} func(ctx context.Context, srv {{.Server}}{{.TArgs}}, req {{.Request}}{{.TArgs}}) {{.Response}}{{.TArgs}}

func {{.BuildDispatch}}{{.TParams}}() map[string]{{.Route}}{{.TArgs}} {
	return map[string]{{.Route}}{{.TArgs}}{
{{- range .Methods}}
		{{.Const}}: func(ctx context.Context, srv {{$.Server}}{{$.TArgs}}, req {{$.Request}}{{$.TArgs}}) {{$.Response}}{{$.TArgs}} {
{{- if or .Params .Nested}}
			r := req.({{.Request}}{{$.TArgs}})
{{- end}}
{{- if .Nested}}
			return {{.Response}}{{$.TArgs}}{Value: srv.{{.GoName}}(ctx{{with .ReqFields}}, {{.}}{{end}}).Handle(ctx, r.Inner)}
{{- else if .Unit}}
			srv.{{.GoName}}(ctx{{with .ReqFields}}, {{.}}{{end}})
			return {{.Response}}{{$.TArgs}}{}
{{- else}}
			return {{.Response}}{{$.TArgs}}{Value: srv.{{.GoName}}(ctx{{with .ReqFields}}, {{.}}{{end}})}
{{- end}}
		},
{{- end}}
	}
}
{{if not .Generic}}
var {{.DispatchVar}} = {{.BuildDispatch}}()
{{end}}
// {{.Handler}} serves {{.Name}} requests with a {{.Server}}.
type {{.Handler}}{{.TParams}} struct {
	srv      {{.Server}}{{.TArgs}}
	dispatch map[string]{{.Route}}{{.TArgs}}
}

// {{.NewHandler}} returns a link.Handler calling srv.
func {{.NewHandler}}{{.TParams}}(srv {{.Server}}{{.TArgs}}) {{.Handler}}{{.TArgs}} {
	return {{.Handler}}{{.TArgs}}{srv: srv, dispatch: {{if .Generic}}{{.BuildDispatch}}{{.TArgs}}(){{else}}{{.DispatchVar}}{{end}}}
}

// Handle implements link.Handler. A nil or foreign request yields a nil
// response.
func (h {{.Handler}}{{.TArgs}}) Handle(ctx context.Context, req {{.Request}}{{.TArgs}}) {{.Response}}{{.TArgs}} {
	if req == nil {
		return nil
	}
	route, ok := h.dispatch[req.Method()]
	if !ok {
		return nil
	}
	return route(ctx, h.srv, req)
}

// {{.Client}} calls {{.Name}} through a link.Transport. Each call blocks
// until its response arrives; nested calls return clients and send nothing.
type {{.Client}}{{.TParams}} struct {
	t link.Transport[{{.Request}}{{.TArgs}}, {{.Response}}{{.TArgs}}]
}

// {{.NewClient}} returns a client sending through t.
func {{.NewClient}}{{.TParams}}(t link.Transport[{{.Request}}{{.TArgs}}, {{.Response}}{{.TArgs}}]) {{.Client}}{{.TArgs}} {
	return {{.Client}}{{.TArgs}}{t: t}
}
{{range .Methods}}
{{if .Nested}}
// {{.GoName}} returns a {{.Nested.Service}} client whose calls travel inside {{.Name}}.
func (c {{$.Client}}{{$.TArgs}}) {{.GoName}}({{.ParamList}}) {{.Nested.Client}} {
	return {{.Nested.NewClient}}(link.NewMappedTransport(c.t, {{.Nested.Args}}{{$.TArgs}}{ {{- .FieldInit -}} }, {{.Nested.ToInner}}{{$.TArgs}}, {{.Nested.ToOuter}}{{$.TArgs}}))
}
{{- else if .Unit}}
// {{.GoName}} calls {{.Name}}.
func (c {{$.Client}}{{$.TArgs}}) {{.GoName}}(ctx context.Context{{with .ParamList}}, {{.}}{{end}}) error {
	_, err := link.Expect[{{.Response}}{{$.TArgs}}](c.t.Send(ctx, {{.Request}}{{$.TArgs}}{ {{- .FieldInit -}} }))
	return err
}
{{- else}}
// {{.GoName}} calls {{.Name}}.
func (c {{$.Client}}{{$.TArgs}}) {{.GoName}}(ctx context.Context{{with .ParamList}}, {{.}}{{end}}) ({{.ValueType}}, error) {
	resp, err := link.Expect[{{.Response}}{{$.TArgs}}](c.t.Send(ctx, {{.Request}}{{$.TArgs}}{ {{- .FieldInit -}} }))
	return resp.Value, err
}
{{- end}}
{{end}}
{{range .Methods}}
{{- if .Nested}}

type {{.Nested.Args}}{{$.TParams}} struct {
{{- range .Params}}
	{{.Field}} {{.Type}}
{{- end}}
}

func {{.Nested.ToInner}}{{$.TParams}}(outer {{$.Response}}{{$.TArgs}}) ({{.Nested.Response}}, bool) {
	resp, ok := outer.({{.Response}}{{$.TArgs}})
	return resp.Value, ok
}

func {{.Nested.ToOuter}}{{$.TParams}}(args {{.Nested.Args}}{{$.TArgs}}, inner {{.Nested.Request}}) {{$.Request}}{{$.TArgs}} {
	return {{.Request}}{{$.TArgs}}{ {{- .OuterInit -}} }
}
{{end}}
{{- end}}
// {{.AsyncClient}} is {{.Client}} with every call returning a link.Future.
type {{.AsyncClient}}{{.TParams}} {{.Client}}{{.TArgs}}

// {{.NewAsyncClient}} returns an async client sending through t.
func {{.NewAsyncClient}}{{.TParams}}(t link.Transport[{{.Request}}{{.TArgs}}, {{.Response}}{{.TArgs}}]) {{.AsyncClient}}{{.TArgs}} {
	return {{.AsyncClient}}{{.TArgs}}{t: t}
}
{{range .Methods}}
{{if .Nested}}
// {{.GoName}} returns a {{.Nested.Service}} async client whose calls travel inside {{.Name}}.
func (c {{$.AsyncClient}}{{$.TArgs}}) {{.GoName}}({{.ParamList}}) {{.Nested.AsyncClient}} {
	return {{.Nested.AsyncClient}}({{$.Client}}{{$.TArgs}}(c).{{.GoName}}({{.CallArgs}}))
}
{{- else if .Unit}}
// {{.GoName}} calls {{.Name}} on its own goroutine.
func (c {{$.AsyncClient}}{{$.TArgs}}) {{.GoName}}(ctx context.Context{{with .ParamList}}, {{.}}{{end}}) *link.Future[link.Unit] {
	return link.Go(ctx, func(ctx context.Context) (link.Unit, error) {
		return link.Unit{}, {{$.Client}}{{$.TArgs}}(c).{{.GoName}}(ctx{{with .CallArgs}}, {{.}}{{end}})
	})
}
{{- else}}
// {{.GoName}} calls {{.Name}} on its own goroutine.
func (c {{$.AsyncClient}}{{$.TArgs}}) {{.GoName}}(ctx context.Context{{with .ParamList}}, {{.}}{{end}}) *link.Future[{{.ValueType}}] {
	return link.Go(ctx, func(ctx context.Context) ({{.ValueType}}, error) {
		return {{$.Client}}{{$.TArgs}}(c).{{.GoName}}(ctx{{with .CallArgs}}, {{.}}{{end}})
	})
}
{{- end}}
{{end}}`

func init() {
	template.Must(fileTemplate.New("service").Parse(serviceText))
}
