// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compiler

import (
	"go/token"
	"go/types"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/luxfi/link/model"
)

// commonInitialisms are written in a single case, as golint expects
var commonInitialisms = map[string]bool{
	"ACL": true, "API": true, "ASCII": true, "CPU": true, "CSS": true,
	"DNS": true, "EOF": true, "GUID": true, "HTML": true, "HTTP": true,
	"HTTPS": true, "ID": true, "IP": true, "JSON": true, "QPS": true,
	"RAM": true, "RPC": true, "SLA": true, "SMTP": true, "SQL": true,
	"SSH": true, "TCP": true, "TLS": true, "TTL": true, "UDP": true,
	"UI": true, "UID": true, "UUID": true, "URI": true, "URL": true,
	"UTF8": true, "VM": true, "XML": true, "XSRF": true, "XSS": true,
}

// exportedName turns a declared name into an exported Go identifier:
// get_todos -> GetTodos, by_id -> ByID. Already mixed case names keep their
// inner capitals.
func exportedName(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		if up := strings.ToUpper(part); commonInitialisms[up] {
			b.WriteString(up)
			continue
		}
		r, size := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(part[size:])
	}
	return b.String()
}

// unexportedName is exportedName with the leading word lowered:
// id_token -> idToken, TodoService -> todoService.
func unexportedName(name string) string {
	exported := exportedName(name)
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		if up := strings.ToUpper(part); commonInitialisms[up] {
			return strings.ToLower(up) + exported[len(up):]
		}
		break
	}
	return lowerFirst(exported)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

// visible applies a service's visibility to a generated identifier
func visible(v model.Visibility, ident string) string {
	if v == model.Private {
		return lowerFirst(ident)
	}
	return ident
}

// reservedLocals are names generated method bodies use themselves
var reservedLocals = map[string]bool{
	"a": true, "args": true, "c": true, "ctx": true, "d": true, "err": true,
	"h": true, "inner": true, "link": true, "ok": true, "outer": true,
	"r": true, "req": true, "resp": true, "srv": true, "context": true,
}

// localName is the Go parameter name for a declared parameter
func localName(name string) string {
	local := unexportedName(name)
	if reservedLocals[local] || token.IsKeyword(local) || types.Universe.Lookup(local) != nil {
		return local + "Arg"
	}
	return local
}
