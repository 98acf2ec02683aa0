package browser

import (
	"errors"
	"fmt"

	"LocalhostSuite/pkg/logger"

	"github.com/playwright-community/playwright-go"
)

// ErrDriverMissing is returned by Installer.Ensure when the Playwright driver
// is absent and installing it was not requested.
var ErrDriverMissing = errors.New("Playwright driver is not installed (run `suite install` or pass --install)")

// Installer checks for and installs the Playwright driver with Chromium.
// Both hooks are replaceable so the CLI can be exercised without downloads.
type Installer struct {
	Check   func() bool
	Install func(verbose bool) error
}

// DefaultInstaller uses the real Playwright driver.
func DefaultInstaller() Installer {
	return Installer{Check: CheckDeps, Install: InstallDeps}
}

// Ensure makes the playwright engine launchable. With force the driver and
// Chromium are (re)installed unconditionally; otherwise a missing driver is
// reported as ErrDriverMissing instead of failing later inside the first test.
func (i Installer) Ensure(force, verbose bool) error {
	log := logger.GetLogger().Named("install")
	if force {
		return i.Install(verbose)
	}
	if i.Check() {
		log.Debug("Playwright driver present")
		return nil
	}
	log.Warn("Playwright driver missing")
	return ErrDriverMissing
}

// InstallDeps downloads the Playwright driver and Chromium only; the suite
// never launches the other browsers.
func InstallDeps(verbose bool) error {
	log := logger.GetLogger().Named("install")
	log.Info("downloading Playwright driver and Chromium")
	opts := &playwright.RunOptions{Browsers: []string{"chromium"}, Verbose: verbose}
	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("install Playwright Chromium: %w", err)
	}
	log.Info("Playwright driver and Chromium ready")
	return nil
}

// CheckDeps reports whether the Playwright driver answers --version.
func CheckDeps() bool {
	driver, err := playwright.NewDriver(&playwright.RunOptions{SkipInstallBrowsers: true})
	if err != nil {
		return false
	}
	return driver.Command("--version").Run() == nil
}
