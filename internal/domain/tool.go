package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ResolveCommand substitutes {name} placeholders in the tool's command
// template. Every argument declared by the tool must be supplied, and no
// undeclared argument is accepted.
func (t Tool) ResolveCommand(args map[string]string) (string, error) {
	for name := range args {
		if _, ok := t.Arguments[name]; !ok {
			return "", &ValidationError{Field: "args", Message: fmt.Sprintf("unknown argument %q for tool %s", name, t.Name)}
		}
	}
	names := make([]string, 0, len(t.Arguments))
	for name := range t.Arguments {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		v, ok := args[name]
		if !ok || v == "" {
			return "", &ValidationError{Field: "args", Message: fmt.Sprintf("missing argument %q (%s)", name, t.Arguments[name])}
		}
		pairs = append(pairs, "{"+name+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(t.Command), nil
}
