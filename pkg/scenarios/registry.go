package scenarios

import (
	"fmt"
	"strings"

	"LocalhostSuite/pkg/runner"
)

// Entry is one registered test case.
type Entry struct {
	ID    string
	Name  string
	Build func(Deps) runner.TestCase
}

// Registry lists every test case in run order. New cases are added here.
var Registry = []Entry{
	{ID: BasicNavigationID, Name: BasicNavigationName, Build: BasicNavigation},
}

// Cases builds every registered test case.
func Cases(deps Deps) []runner.TestCase {
	cases := make([]runner.TestCase, 0, len(Registry))
	for _, e := range Registry {
		cases = append(cases, e.Build(deps))
	}
	return cases
}

// Select builds the case whose ID or name matches only (case-insensitive),
// or every case when only is empty.
func Select(deps Deps, only string) ([]runner.TestCase, error) {
	only = strings.TrimSpace(only)
	if only == "" {
		return Cases(deps), nil
	}
	for _, e := range Registry {
		if strings.EqualFold(e.ID, only) || strings.EqualFold(e.Name, only) {
			return []runner.TestCase{e.Build(deps)}, nil
		}
	}
	return nil, fmt.Errorf("no test case named %q", only)
}
