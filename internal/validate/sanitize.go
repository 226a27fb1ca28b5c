package validate

import (
	"path/filepath"
	"regexp"
	"strings"
)

const maxFilenameLength = 255

// fallbackFilename is substituted when sanitization leaves nothing.
const fallbackFilename = "unnamed_file"

var (
	unsafeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	mailboxStripRe   = regexp.MustCompile(`[<>:"|?*]`)
)

// Filename sanitizes a name for safe file operations. Directory
// components are discarded entirely, which is the path-traversal
// defense: only the final path element survives. Characters outside
// [A-Za-z0-9._-] become underscores, leading dots are stripped, and
// the result is capped at 255 chars preserving the extension.
func Filename(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")

	// Basename only; treat both separators as path separators since
	// the name may have been composed on another platform.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" {
		name = ""
	}

	name = unsafeFilenameRe.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")

	if len(name) > maxFilenameLength {
		if dot := strings.LastIndex(name, "."); dot > 0 {
			ext := name[dot+1:]
			base := name[:dot]
			if keep := maxFilenameLength - len(ext) - 1; keep > 0 && keep < len(base) {
				base = base[:keep]
			}
			name = base + "." + ext
		} else {
			name = name[:maxFilenameLength]
		}
		// An extension longer than the cap defeats the
		// extension-preserving branch, so cap again unconditionally.
		if len(name) > maxFilenameLength {
			name = name[:maxFilenameLength]
		}
	}

	if name == "" {
		return fallbackFilename
	}
	return name
}

// MailboxName sanitizes a mailbox/folder name: NUL bytes, traversal
// sequences ("..", "/", "\") and the characters <>:"|?* are removed,
// and the result is trimmed of surrounding whitespace. Spaces, dashes
// and underscores survive since Mail allows them in mailbox names.
func MailboxName(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	name = mailboxStripRe.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}
