package shared

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

var goos = runtime.GOOS

// OpenBrowser opens url in the default browser on macOS, Linux and Windows.
func OpenBrowser(url string) error {
	cmd, err := browserCommand(goos, url)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

func browserCommand(platform, url string) (*exec.Cmd, error) {
	switch platform {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", platform)
	}
}

// GenerateState returns an opaque OAuth state token.
func GenerateState() string {
	return strings.ReplaceAll(GenerateID(), "-", "")
}
