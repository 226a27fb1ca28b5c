package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmail_Valid(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last@example.com",
		"user+tag@example.co.uk",
		"u@example.io",
		"user_name%x@sub.example.com",
	}
	for _, e := range valid {
		assert.True(t, Email(e), "expected valid: %s", e)
	}
}

func TestEmail_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"plainaddress",
		"user@@example.com",
		"user..name@example.com",
		".user@example.com",
		"user.@example.com",
		"user@-example.com",
		"user@example-.com",
		"user@example",
		"user@example.c",
		"user@" + strings.Repeat("a", 250) + ".com",
		strings.Repeat("a", 65) + "@example.com",
	}
	for _, e := range invalid {
		assert.False(t, Email(e), "expected invalid: %s", e)
	}
}

func TestEmail_TotalLengthBound(t *testing.T) {
	// 254 total is the RFC 5321 ceiling.
	local := strings.Repeat("a", 64)
	atCap := local + "@" + strings.Repeat("b", 61) + "." + strings.Repeat("c", 61) + "." +
		strings.Repeat("d", 61) + ".com"
	require.Len(t, atCap, 254)
	assert.True(t, Email(atCap))

	long := local + "@" + strings.Repeat("b", 62) + "." + strings.Repeat("c", 61) + "." +
		strings.Repeat("d", 61) + ".com"
	require.Greater(t, len(long), 254)
	assert.False(t, Email(long))
}

func TestMessageID(t *testing.T) {
	assert.True(t, MessageID("12345"))
	assert.True(t, MessageID("ABC-123_def"))

	assert.False(t, MessageID(""))
	assert.False(t, MessageID("../../../etc/passwd"))
	assert.False(t, MessageID("id with spaces"))
	assert.False(t, MessageID("id;rm -rf"))
	assert.False(t, MessageID(strings.Repeat("a", 256)))
	assert.True(t, MessageID(strings.Repeat("a", 255)))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "passwd", Filename("../../../etc/passwd"))
	assert.Equal(t, "file_name.txt", Filename("file:name.txt"))
	assert.Equal(t, "filename.txt", Filename("file\x00name.txt"))
	assert.Equal(t, "document.pdf", Filename("document.pdf"))
	assert.Equal(t, "my-file_v2.txt", Filename("my-file_v2.txt"))
	// Windows-style separators are treated as path separators.
	assert.Equal(t, "evil.exe", Filename(`..\..\windows\evil.exe`))
	// Hidden files lose their leading dots.
	assert.Equal(t, "bashrc", Filename(".bashrc"))
	assert.Equal(t, "unnamed_file", Filename(""))
	assert.Equal(t, "unnamed_file", Filename("..."))
}

func TestFilename_LengthCapPreservesExtension(t *testing.T) {
	long := strings.Repeat("a", 300) + ".pdf"
	got := Filename(long)
	assert.LessOrEqual(t, len(got), 255)
	assert.True(t, strings.HasSuffix(got, ".pdf"))
}

func TestFilename_LengthCapWithOversizedExtension(t *testing.T) {
	// The extension alone exceeds the cap, so it cannot be preserved.
	got := Filename("doc." + strings.Repeat("x", 300))
	assert.LessOrEqual(t, len(got), 255)
}

func TestMailboxName(t *testing.T) {
	assert.Equal(t, "Valid Name", MailboxName("Valid Name"))
	assert.Equal(t, "etc", MailboxName("../../../etc"))
	assert.Equal(t, "Inbox", MailboxName(`In<b>o"x|?*`))
	assert.Equal(t, "Archive 2024", MailboxName("  Archive 2024  "))
	assert.Equal(t, "", MailboxName("../.."))
}

func TestInput(t *testing.T) {
	assert.Equal(t, "hello", Input("he\x00llo"))
	long := strings.Repeat("x", 20000)
	assert.Len(t, Input(long), 10000)
}

func TestFlagColor(t *testing.T) {
	for _, c := range []string{"none", "orange", "red", "yellow", "blue", "green", "purple", "gray"} {
		assert.True(t, FlagColor(c), c)
	}
	assert.True(t, FlagColor("RED"))
	assert.False(t, FlagColor("magenta"))
	assert.False(t, FlagColor(""))
}

func TestFlagIndex(t *testing.T) {
	idx, err := FlagIndex("none")
	require.NoError(t, err)
	assert.Equal(t, -1, idx)

	idx, err = FlagIndex("red")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	idx, err = FlagIndex("gray")
	require.NoError(t, err)
	assert.Equal(t, 6, idx)

	_, err = FlagIndex("chartreuse")
	require.Error(t, err)
	var ufc *UnknownFlagColorError
	assert.ErrorAs(t, err, &ufc)
}

func TestRedactError_Paths(t *testing.T) {
	got := RedactError("Error in /Users/me/secrets/config.py: Invalid value")
	assert.Contains(t, got, "[PATH]")
	assert.NotContains(t, got, "/Users/me")

	got = RedactError(`failed to open C:\Users\me\mail.db`)
	assert.Contains(t, got, "[PATH]")
	assert.NotContains(t, got, `C:\Users`)
}

func TestRedactError_IDsAndEmails(t *testing.T) {
	got := RedactError("Message ID1234567890 failed for user@example.com")
	assert.Contains(t, got, "[ID]")
	assert.Contains(t, got, "[EMAIL]")
	assert.NotContains(t, got, "ID1234567890")
	assert.NotContains(t, got, "user@example.com")
}

func TestRedactError_PlainWordsSurvive(t *testing.T) {
	// Long words without digits are not IDs.
	got := RedactError("configuration misunderstanding")
	assert.Equal(t, "configuration misunderstanding", got)
}

func TestRedactError_PlaceholdersNotReMatched(t *testing.T) {
	got := RedactError("path /var/log/mail contains id ABC1234567890")
	assert.NotContains(t, got, "[[")
	assert.Contains(t, got, "[PATH]")
	assert.Contains(t, got, "[ID]")
}
