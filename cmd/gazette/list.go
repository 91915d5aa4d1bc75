package main

import (
	"fmt"
	"sort"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	codes := make([]string, 0, len(deps.Config.Sources))
	for code := range deps.Config.Sources {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		sc := deps.Config.Sources[code]
		name := sc.Name
		if name == "" {
			name = code
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s\n", code, name, sc.FetchMethod)
	}
	return nil
}
