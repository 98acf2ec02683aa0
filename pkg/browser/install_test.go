package browser_test

import (
	"errors"
	"testing"

	"LocalhostSuite/pkg/browser"

	"github.com/stretchr/testify/assert"
)

type installRecorder struct {
	present  bool
	installs []bool
	err      error
}

func (r *installRecorder) installer() browser.Installer {
	return browser.Installer{
		Check: func() bool { return r.present },
		Install: func(verbose bool) error {
			r.installs = append(r.installs, verbose)
			return r.err
		},
	}
}

func TestInstallerEnsure(t *testing.T) {
	t.Run("driver present", func(t *testing.T) {
		r := &installRecorder{present: true}
		assert.NoError(t, r.installer().Ensure(false, false))
		assert.Empty(t, r.installs)
	})

	t.Run("driver missing", func(t *testing.T) {
		r := &installRecorder{}
		err := r.installer().Ensure(false, false)
		assert.ErrorIs(t, err, browser.ErrDriverMissing)
		assert.Empty(t, r.installs)
	})

	t.Run("force installs even when present", func(t *testing.T) {
		r := &installRecorder{present: true}
		assert.NoError(t, r.installer().Ensure(true, true))
		assert.Equal(t, []bool{true}, r.installs)
	})

	t.Run("install failure", func(t *testing.T) {
		r := &installRecorder{err: errors.New("download failed")}
		assert.EqualError(t, r.installer().Ensure(true, false), "download failed")
	})
}
