package tui

import (
	"fmt"
	"strconv"
	"strings"
)

// StatusInfo is a parsed daemon status reply.
type StatusInfo struct {
	Status   string
	Duration int // seconds
	Error    string
}

// ParseStatus parses a "STATUS status=... duration=... [error=...]" reply
// from the control socket.
func ParseStatus(resp string) (StatusInfo, error) {
	resp = strings.TrimSpace(resp)
	if !strings.HasPrefix(resp, "STATUS ") {
		return StatusInfo{}, fmt.Errorf("unexpected daemon reply: %q", resp)
	}

	var info StatusInfo
	rest := strings.TrimPrefix(resp, "STATUS ")
	for len(rest) > 0 {
		rest = strings.TrimLeft(rest, " ")
		eq := strings.IndexByte(rest, '=')
		if eq < 0 {
			break
		}
		key := rest[:eq]
		rest = rest[eq+1:]

		var value string
		if strings.HasPrefix(rest, `"`) {
			unquoted, err := strconv.QuotedPrefix(rest)
			if err != nil {
				return StatusInfo{}, fmt.Errorf("malformed daemon reply: %q", resp)
			}
			value, _ = strconv.Unquote(unquoted)
			rest = rest[len(unquoted):]
		} else {
			end := strings.IndexByte(rest, ' ')
			if end < 0 {
				end = len(rest)
			}
			value = rest[:end]
			rest = rest[end:]
		}

		switch key {
		case "status":
			info.Status = value
		case "duration":
			info.Duration, _ = strconv.Atoi(value)
		case "error":
			info.Error = value
		}
	}

	if info.Status == "" {
		return StatusInfo{}, fmt.Errorf("daemon reply missing status: %q", resp)
	}
	return info, nil
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func statusStyle(status string) (string, string) {
	switch status {
	case "listening":
		return "●", "listening"
	case "paused":
		return "⏸", "paused"
	case "processing":
		return "◌", "processing"
	case "error":
		return "✗", "error"
	case "stopped":
		return "■", "stopped"
	default:
		return "○", status
	}
}

// RenderStatus formats a status reply for the terminal.
func RenderStatus(info StatusInfo) string {
	icon, label := statusStyle(info.Status)

	var style = StyleMuted
	switch info.Status {
	case "listening":
		style = StyleSuccess
	case "paused":
		style = StyleWarning
	case "processing":
		style = StyleHighlight
	case "error":
		style = StyleError
	}

	line := render(style, fmt.Sprintf("%s %s", icon, label))
	switch info.Status {
	case "listening", "paused":
		line += render(StyleMuted, "  "+FormatDuration(info.Duration))
	}
	if info.Error != "" {
		line += "\n" + render(StyleError, info.Error)
	}
	return line
}
