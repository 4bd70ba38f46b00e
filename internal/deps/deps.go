package deps

import (
	"os/exec"
	"strings"
)

// Status represents the installation status of an external tool
type Status struct {
	Installed bool
	Path      string
	Version   string
}

func check(name string, versionArgs ...string) Status {
	path, err := exec.LookPath(name)
	if err != nil {
		return Status{Installed: false}
	}

	status := Status{
		Installed: true,
		Path:      path,
	}

	if len(versionArgs) > 0 {
		output, err := exec.Command(path, versionArgs...).Output()
		if err == nil {
			lines := strings.Split(string(output), "\n")
			if len(lines) > 0 {
				status.Version = strings.TrimSpace(lines[0])
			}
		}
	}

	return status
}

// CheckPwRecord checks for the PipeWire capture tool used for microphone input
func CheckPwRecord() Status {
	return check("pw-record", "--version")
}

// CheckPwCli checks for pw-cli, used to probe audio daemon access
func CheckPwCli() Status {
	return check("pw-cli", "--version")
}

// CheckNotifySend checks for the desktop notification tool
func CheckNotifySend() Status {
	return check("notify-send", "--version")
}

// CheckClipboardTool checks for a clipboard utility usable by the clipboard
// delivery backend. Wayland first, then X11 fallbacks.
func CheckClipboardTool() Status {
	for _, name := range []string{"wl-copy", "xclip", "xsel"} {
		if s := check(name); s.Installed {
			return s
		}
	}
	return Status{Installed: false}
}
