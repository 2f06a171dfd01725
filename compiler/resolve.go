// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/luxfi/link/model"
)

// resolve binds every nested reference of schema to its definition. Unknown
// services, type argument mismatches and reference cycles, including a
// service returning itself, are rejected.
func resolve(schema *model.Schema) error {
	for _, svc := range schema.Services {
		for _, m := range svc.Methods {
			if !m.Nested() {
				continue
			}
			ref := m.Return.Nested
			def, ok := schema.Service(ref.Service)
			if !ok {
				return fmt.Errorf("%w: %s.%s returns %s", ErrUnknownService, svc.Name, m.Name, ref.Service)
			}
			if len(ref.TypeArgs) != len(def.TypeParams) {
				return fmt.Errorf("%w: %s.%s: %s takes %d, got %d",
					ErrTypeArgCount, svc.Name, m.Name, def.Name, len(def.TypeParams), len(ref.TypeArgs))
			}
			ref.Def = def
		}
	}
	return checkCycles(schema)
}

const (
	unvisited = iota
	visiting
	visited
)

func checkCycles(schema *model.Schema) error {
	state := make(map[*model.ServiceDefinition]int, len(schema.Services))
	var path []string

	var visit func(svc *model.ServiceDefinition) error
	visit = func(svc *model.ServiceDefinition) error {
		switch state[svc] {
		case visiting:
			start := slices.Index(path, svc.Name)
			cycle := append(slices.Clone(path[start:]), svc.Name)
			return fmt.Errorf("%w: %s", ErrCyclicService, strings.Join(cycle, " -> "))
		case visited:
			return nil
		}
		state[svc] = visiting
		path = append(path, svc.Name)
		for _, m := range svc.Methods {
			if !m.Nested() {
				continue
			}
			if err := visit(m.Return.Nested.Def); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[svc] = visited
		return nil
	}

	for _, svc := range schema.Services {
		if err := visit(svc); err != nil {
			return err
		}
	}
	return nil
}
