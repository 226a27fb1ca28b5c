package script

import (
	"fmt"
	"strings"
)

// SearchFilters holds the optional search criteria. Zero values mean
// "no filter"; ReadStatus distinguishes unset (nil) from false.
type SearchFilters struct {
	SenderContains  string
	SubjectContains string
	ReadStatus      *bool
	// DateFrom is a human date phrase translated via DateExpr.
	DateFrom string
}

// searchLine is the expression producing one 5-field search record.
const searchLine = `set output to output & (id of msg as string) & "|" & (subject of msg) & "|" & (sender of msg) & "|" & (date received of msg as string) & "|" & (read status of msg as string) & linefeed`

// Search builds the message-search script for a mailbox. Filter
// clauses are conjoined into a single whose clause; with no filters
// the full collection is requested directly, since a vacuous
// "whose true" clause is rejected by the interpreter. Result caps are
// deliberately not rendered into the script: slicing clauses interact
// badly with whose clauses in Mail's collection semantics, so capping
// happens after parsing.
func Search(account, mailbox string, f SearchFilters) string {
	var clauses []string
	if f.SenderContains != "" {
		clauses = append(clauses, fmt.Sprintf("sender contains %s", Quote(f.SenderContains)))
	}
	if f.SubjectContains != "" {
		clauses = append(clauses, fmt.Sprintf("subject contains %s", Quote(f.SubjectContains)))
	}
	if f.ReadStatus != nil {
		clauses = append(clauses, fmt.Sprintf("read status is %t", *f.ReadStatus))
	}
	if f.DateFrom != "" {
		clauses = append(clauses, fmt.Sprintf("date received > %s", DateExpr(f.DateFrom)))
	}

	collection := "messages of mailboxRef"
	if len(clauses) > 0 {
		collection += " whose " + strings.Join(clauses, " and ")
	}

	return fmt.Sprintf(`tell application "Mail"
	set accountRef to account %s
	set mailboxRef to mailbox %s of accountRef
	set output to ""
	set msgs to %s
	repeat with msg in msgs
		%s
	end repeat
	return output
end tell`, Quote(account), Quote(mailbox), collection, searchLine)
}

// findByID is the script fragment locating a message by id across all
// accounts and mailboxes, leaving it in foundMsg. A miss raises the
// interpreter error pattern the classifier maps to "message not
// found".
func findByID(id string) string {
	return fmt.Sprintf(`set foundMsg to missing value
	repeat with acct in accounts
		repeat with mbox in mailboxes of acct
			try
				set matches to (messages of mbox whose id is %s)
				if (count of matches) > 0 then
					set foundMsg to item 1 of matches
					exit repeat
				end if
			end try
		end repeat
		if foundMsg is not missing value then exit repeat
	end repeat
	if foundMsg is missing value then error "Can't get message %s"`, id, id)
}

// GetMessage builds the detailed-fetch script for one message. The
// output line carries 7 pipe-separated fields with content last, so a
// body containing pipes cannot shift earlier fields.
func GetMessage(id string, includeContent bool) string {
	content := `""`
	if includeContent {
		content = "(content of foundMsg)"
	}
	return fmt.Sprintf(`tell application "Mail"
	%s
	return (id of foundMsg as string) & "|" & (subject of foundMsg) & "|" & (sender of foundMsg) & "|" & (date received of foundMsg as string) & "|" & (read status of foundMsg as string) & "|" & (flagged status of foundMsg as string) & "|" & %s
end tell`, findByID(id), content)
}

// ListMailboxes builds the mailbox-listing script. With an account
// name, only that account's mailboxes are listed; otherwise every
// account is walked. Output lines are name|account.
func ListMailboxes(account string) string {
	if account != "" {
		return fmt.Sprintf(`tell application "Mail"
	set accountRef to account %s
	set output to ""
	repeat with mbox in mailboxes of accountRef
		set output to output & (name of mbox) & "|" & (name of accountRef) & linefeed
	end repeat
	return output
end tell`, Quote(account))
	}
	return `tell application "Mail"
	set output to ""
	repeat with acct in accounts
		repeat with mbox in mailboxes of acct
			set output to output & (name of mbox) & "|" & (name of acct) & linefeed
		end repeat
	end repeat
	return output
end tell`
}

// ListAccounts builds the account-listing script. The interpreter
// renders the returned AppleScript list as a comma-separated line,
// decoded with ParseList.
func ListAccounts() string {
	return `tell application "Mail"
	return name of every account
end tell`
}

// recipientClauses renders the make-new-recipient loop for one
// recipient class ("to", "cc" or "bcc").
func recipientClauses(class string, addrs []string) string {
	if len(addrs) == 0 {
		return ""
	}
	return fmt.Sprintf(`		repeat with addr in %s
			make new %s recipient at end of %s recipients with properties {address:(contents of addr)}
		end repeat
`, FormatList(addrs), class, class)
}

// Send builds the send-email script. Recipients must already have
// passed email validation.
func Send(subject, body string, to, cc, bcc []string) string {
	var recipients strings.Builder
	recipients.WriteString(recipientClauses("to", to))
	recipients.WriteString(recipientClauses("cc", cc))
	recipients.WriteString(recipientClauses("bcc", bcc))

	return fmt.Sprintf(`tell application "Mail"
	set newMessage to make new outgoing message with properties {subject:%s, content:%s, visible:false}
	tell newMessage
%s	end tell
	send newMessage
	return "sent"
end tell`, Quote(subject), Quote(body), recipients.String())
}

// SendWithAttachments builds the send script with attachment clauses.
// Paths must be absolute and already policy-checked.
func SendWithAttachments(subject, body string, to, cc, bcc, paths []string) string {
	var inner strings.Builder
	inner.WriteString(recipientClauses("to", to))
	inner.WriteString(recipientClauses("cc", cc))
	inner.WriteString(recipientClauses("bcc", bcc))
	for _, p := range paths {
		fmt.Fprintf(&inner, "\t\tmake new attachment with properties {file name:POSIX file %s} at after the last paragraph\n",
			Quote(p))
	}

	return fmt.Sprintf(`tell application "Mail"
	set newMessage to make new outgoing message with properties {subject:%s, content:%s, visible:false}
	tell newMessage
%s	end tell
	send newMessage
	return "sent"
end tell`, Quote(subject), Quote(body), inner.String())
}

// forEachByID wraps a per-message statement in the bulk lookup loop.
// The statement sees the current message as msg; the script returns
// the number of messages acted on.
func forEachByID(ids []string, statement string) string {
	return fmt.Sprintf(`tell application "Mail"
	set targetIDs to %s
	set changedCount to 0
	repeat with targetID in targetIDs
		set found to false
		repeat with acct in accounts
			repeat with mbox in mailboxes of acct
				try
					set matches to (messages of mbox whose id is targetID)
					if (count of matches) > 0 then
						set msg to item 1 of matches
						%s
						set changedCount to changedCount + 1
						set found to true
						exit repeat
					end if
				end try
			end repeat
			if found then exit repeat
		end repeat
	end repeat
	return changedCount as string
end tell`, FormatIDList(ids), statement)
}

// MarkRead builds the bulk read-status script.
func MarkRead(ids []string, read bool) string {
	return forEachByID(ids, fmt.Sprintf("set read status of msg to %t", read))
}

// SetFlag builds the bulk flag-index script. The index comes from
// validate.FlagIndex (-1 clears the flag).
func SetFlag(ids []string, flagIndex int) string {
	return forEachByID(ids, fmt.Sprintf("set flag index of msg to %d", flagIndex))
}

// Delete builds the bulk delete script. Deleted messages go to Mail's
// trash, not to permanent removal.
func Delete(ids []string) string {
	return forEachByID(ids, "delete msg")
}

// Move builds the bulk move script targeting a mailbox of an account.
func Move(ids []string, account, mailbox string) string {
	header := fmt.Sprintf(`set targetBox to mailbox %s of account %s
	`, Quote(mailbox), Quote(account))
	body := forEachByID(ids, "move msg to targetBox")
	// Insert the target lookup right after the tell line.
	return strings.Replace(body, "\tset targetIDs", "\t"+header+"set targetIDs", 1)
}

// ListAttachments builds the attachment-listing script for one
// message. Output lines are name|mime_type|size|downloaded, in
// message order.
func ListAttachments(id string) string {
	return fmt.Sprintf(`tell application "Mail"
	%s
	set output to ""
	repeat with att in mail attachments of foundMsg
		set output to output & (name of att) & "|" & (MIME type of att) & "|" & ((file size of att) as string) & "|" & ((downloaded of att) as string) & linefeed
	end repeat
	return output
end tell`, findByID(id))
}

// SaveAttachments builds the attachment-save script. With indices the
// listed positions (0-based, message order) are saved; with none,
// every attachment is. dir must be an existing, traversal-free
// directory. Returns the saved-file count on stdout.
func SaveAttachments(id, dir string, indices []int) string {
	idxStrs := make([]string, len(indices))
	for i, n := range indices {
		idxStrs[i] = fmt.Sprintf("%d", n)
	}

	condition := "true"
	if len(indices) > 0 {
		condition = fmt.Sprintf("{%s} contains idx", strings.Join(idxStrs, ", "))
	}

	return fmt.Sprintf(`tell application "Mail"
	%s
	set savedCount to 0
	set idx to 0
	repeat with att in mail attachments of foundMsg
		if %s then
			set attName to name of att
			save att in POSIX file (%s & "/" & attName)
			set savedCount to savedCount + 1
		end if
		set idx to idx + 1
	end repeat
	return savedCount as string
end tell`, findByID(id), condition, Quote(dir))
}

// UnreadCount builds the unread-count script. With an account name the
// count is summed over that account's mailboxes; otherwise the unified
// inbox count is returned.
func UnreadCount(account string) string {
	if account != "" {
		return fmt.Sprintf(`tell application "Mail"
	set accountRef to account %s
	set totalUnread to 0
	repeat with mbox in mailboxes of accountRef
		set totalUnread to totalUnread + (unread count of mbox)
	end repeat
	return totalUnread as string
end tell`, Quote(account))
	}
	return `tell application "Mail"
	return (unread count of inbox) as string
end tell`
}

// Reply builds the reply script for one message. With replyAll the
// reply goes to every original recipient.
func Reply(id, body string, replyAll bool) string {
	replyVerb := "reply foundMsg without opening window"
	if replyAll {
		replyVerb = "reply foundMsg with reply to all without opening window"
	}
	return fmt.Sprintf(`tell application "Mail"
	%s
	set replyMsg to %s
	set content of replyMsg to %s
	send replyMsg
	return "sent"
end tell`, findByID(id), replyVerb, Quote(body))
}

// ConfirmDialog builds the confirmation modal script shown before
// sensitive operations. Cancel is the default button; the call is
// confirmed only when the process exits 0 and its output contains
// "Confirm".
func ConfirmDialog(message string) string {
	return fmt.Sprintf(`display dialog %s buttons {"Cancel", "Confirm"} default button "Cancel" with title "Mail Bridge Confirmation" with icon caution`,
		Quote(message))
}
