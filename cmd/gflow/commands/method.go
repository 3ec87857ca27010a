package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/l3aro/go-gflow/pkg/frontend"
	"github.com/l3aro/go-gflow/pkg/jast"
)

// loadMethod parses filePath and returns the method called name. name may
// be qualified with its class, as in "Main.run".
func loadMethod(ctx context.Context, filePath, name string) (*jast.Program, *jast.Method, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("path is a directory, expected a file: %s", filePath)
	}

	prog, err := frontend.ParseFile(ctx, filePath)
	if err != nil {
		return nil, nil, err
	}

	var found []*jast.Method
	for _, m := range prog.Methods {
		if matchesMethod(m, name) {
			found = append(found, m)
		}
	}

	switch {
	case len(found) == 0:
		if suggestions := similarMethods(prog, name); len(suggestions) > 0 {
			return nil, nil, fmt.Errorf("method %q not found in %s\nDid you mean: %s?", name, filePath, strings.Join(suggestions, ", "))
		}
		return nil, nil, fmt.Errorf("method %q not found in %s", name, filePath)
	case len(found) > 1:
		return nil, nil, fmt.Errorf("method %q is ambiguous in %s (%d overloads)", name, filePath, len(found))
	case found[0].Body == nil:
		return nil, nil, fmt.Errorf("method %q has no body", name)
	}
	return prog, found[0], nil
}

func matchesMethod(m *jast.Method, name string) bool {
	if class, method, ok := strings.Cut(name, "."); ok {
		return m.Class == class && m.Name == method
	}
	return m.Name == name
}

// similarMethods lists methods whose name contains name, ignoring case.
func similarMethods(prog *jast.Program, name string) []string {
	needle := strings.ToLower(name)
	if _, method, ok := strings.Cut(needle, "."); ok {
		needle = method
	}
	var out []string
	for _, m := range prog.Methods {
		lower := strings.ToLower(m.Name)
		if strings.Contains(lower, needle) || strings.Contains(needle, lower) {
			out = append(out, m.Class+"."+m.Name)
		}
	}
	sort.Strings(out)
	return out
}
