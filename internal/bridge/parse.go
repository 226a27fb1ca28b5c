package bridge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lhoang/mailbridge/internal/model"
)

// Field counts of the pipe-delimited records the interpreter emits.
const (
	searchFieldCount     = 5
	detailFieldCount     = 7
	attachmentFieldCount = 4
	mailboxFieldCount    = 2
)

// parseMessages decodes newline-separated 5-field search records
// (id|subject|sender|date|read). Empty output decodes to an empty
// result, not an error. Lines with the wrong field count are skipped.
func parseMessages(out string) []model.MailMessage {
	var msgs []model.MailMessage
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) != searchFieldCount {
			continue
		}
		msgs = append(msgs, model.MailMessage{
			ID:           parts[0],
			Subject:      parts[1],
			Sender:       parts[2],
			DateReceived: parts[3],
			Read:         parts[4] == "true",
		})
	}
	return msgs
}

// parseDetail decodes a single 7-field detail record
// (id|subject|sender|date|read|flagged|content). Content is the final
// field, so SplitN keeps any pipes inside the body intact.
func parseDetail(out string) (*model.MailMessage, error) {
	line := strings.TrimSpace(out)
	if line == "" {
		return nil, fmt.Errorf("empty detail record")
	}
	parts := strings.SplitN(line, "|", detailFieldCount)
	if len(parts) != detailFieldCount {
		return nil, fmt.Errorf("detail record has %d fields, want %d", len(parts), detailFieldCount)
	}
	return &model.MailMessage{
		ID:           parts[0],
		Subject:      parts[1],
		Sender:       parts[2],
		DateReceived: parts[3],
		Read:         parts[4] == "true",
		Flagged:      parts[5] == "true",
		Content:      parts[6],
	}, nil
}

// parseAttachments decodes newline-separated 4-field attachment
// records (name|mime_type|size|downloaded) in message order. Lines
// with the wrong shape or a non-numeric size are skipped.
func parseAttachments(out string) []model.Attachment {
	var atts []model.Attachment
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) != attachmentFieldCount {
			continue
		}
		size, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || size < 0 {
			continue
		}
		atts = append(atts, model.Attachment{
			Name:       parts[0],
			MIMEType:   parts[1],
			Size:       size,
			Downloaded: parts[3] == "true",
		})
	}
	return atts
}

// parseMailboxes decodes newline-separated name|account records.
func parseMailboxes(out string) []model.Mailbox {
	var boxes []model.Mailbox
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) != mailboxFieldCount {
			continue
		}
		boxes = append(boxes, model.Mailbox{Name: parts[0], Account: parts[1]})
	}
	return boxes
}

// parseCount decodes a single integer payload, as returned by the
// bulk operations.
func parseCount(out string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("parsing count %q: %w", out, err)
	}
	return n, nil
}

// capMessages applies a requested result cap after parsing: the first
// limit records in interpreter order are kept. Zero or negative means
// no cap; a cap beyond the available records keeps them all.
func capMessages(msgs []model.MailMessage, limit int) []model.MailMessage {
	if limit <= 0 || len(msgs) <= limit {
		return msgs
	}
	return msgs[:limit]
}
