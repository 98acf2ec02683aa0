package scenarios

import (
	"testing"

	"LocalhostSuite/pkg/browser/browsertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCases(t *testing.T) {
	deps := Deps{Launcher: &browsertest.Launcher{}, Settings: testSettings(t)}

	cases := Cases(deps)
	require.Len(t, cases, len(Registry))
	for i, e := range Registry {
		assert.Equal(t, e.Name, cases[i].Name)
		assert.NotNil(t, cases[i].Fn)
	}
}

func TestSelect(t *testing.T) {
	deps := Deps{Launcher: &browsertest.Launcher{}, Settings: testSettings(t)}

	tests := []struct {
		name    string
		only    string
		want    []string
		wantErr bool
	}{
		{"empty selects all", "", []string{BasicNavigationName}, false},
		{"by id", "basic-navigation", []string{BasicNavigationName}, false},
		{"by name, any case", "BASIC NAVIGATION TO LOCALHOST", []string{BasicNavigationName}, false},
		{"unknown", "checkout", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cases, err := Select(deps, tt.only)
			if tt.wantErr {
				assert.ErrorContains(t, err, `no test case named "checkout"`)
				return
			}
			require.NoError(t, err)
			var names []string
			for _, c := range cases {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}
