package security

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lhoang/mailbridge/internal/validate"
)

// dangerousExtensions are attachment types refused by default:
// executables, scripts, installers and shortcuts.
var dangerousExtensions = map[string]bool{
	".exe": true, ".bat": true, ".cmd": true, ".com": true,
	".scr": true, ".pif": true, ".vbs": true, ".vbe": true,
	".js": true, ".jse": true, ".wsf": true, ".wsh": true,
	".msi": true, ".msp": true, ".scf": true, ".lnk": true,
	".inf": true, ".reg": true, ".ps1": true, ".psm1": true,
	".app": true, ".deb": true, ".rpm": true,
	".sh": true, ".bash": true, ".csh": true, ".ksh": true, ".zsh": true,
	".command": true,
}

// ValidateBulk rejects empty batches and batches over max. A batch of
// exactly max items is allowed.
func ValidateBulk(count, max int) error {
	if count == 0 {
		return &PolicyError{Reason: "no items specified"}
	}
	if count > max {
		return &PolicyError{Reason: fmt.Sprintf("too many items: %d exceeds limit of %d", count, max)}
	}
	return nil
}

// ValidateSend checks the recipient lists of an outgoing message.
// Every address in every list is validated and all invalid addresses
// are reported together.
func ValidateSend(to, cc, bcc []string, maxRecipients int) error {
	if len(to) == 0 {
		return &PolicyError{Reason: "at least one recipient required"}
	}

	total := len(to) + len(cc) + len(bcc)
	if total > maxRecipients {
		return &PolicyError{Reason: fmt.Sprintf("too many recipients: %d exceeds limit of %d", total, maxRecipients)}
	}

	var invalid []string
	for _, list := range [][]string{to, cc, bcc} {
		for _, addr := range list {
			if !validate.Email(addr) {
				invalid = append(invalid, validate.RedactError(addr))
			}
		}
	}
	if len(invalid) > 0 {
		return &PolicyError{Reason: "invalid recipient addresses: " + strings.Join(invalid, ", ")}
	}
	return nil
}

// ValidateAttachmentType refuses dangerous file extensions unless the
// override allows them. Every other extension is permitted.
func ValidateAttachmentType(path string, allowExecutables bool) error {
	ext := strings.ToLower(filepath.Ext(path))
	if dangerousExtensions[ext] && !allowExecutables {
		return &PolicyError{Reason: fmt.Sprintf("attachment type %s is not allowed", ext)}
	}
	return nil
}

// ValidateAttachmentSize rejects payloads over max bytes.
func ValidateAttachmentSize(size, max int64) error {
	if size > max {
		return &PolicyError{Reason: fmt.Sprintf("attachment size %d exceeds limit of %d bytes", size, max)}
	}
	return nil
}
