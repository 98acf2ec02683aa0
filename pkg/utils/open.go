package utils

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openCommand returns the command that opens target (a URL, file or
// directory) with the desktop's default handler, or nil when the OS has none.
func openCommand(goos, target string) *exec.Cmd {
	switch goos {
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", target)
	case "darwin":
		return exec.Command("open", target)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		return nil
	}
}

// OpenPath opens target in the default application without waiting for it.
func OpenPath(target string) error {
	cmd := openCommand(runtime.GOOS, target)
	if cmd == nil {
		return fmt.Errorf("opening files is not supported on %s", runtime.GOOS)
	}
	return cmd.Start()
}
