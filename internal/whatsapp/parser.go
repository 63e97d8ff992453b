package whatsapp

import (
	"regexp"
	"strings"
)

// Command verbs recognized on the WhatsApp channel.
const (
	VerbLink    = "link"
	VerbBook    = "book"
	VerbHelp    = "help"
	VerbUnknown = "unknown"
)

// Command is a parsed short-text command. Unrecognized input parses to
// VerbUnknown, which callers answer with guidance, never an error.
type Command struct {
	Verb     string
	Code     string // link
	Facility string // book
	Date     string // book, YYYY-MM-DD
	Time     string // book, HH:MM
	Project  string // book, optional quoted string
}

var (
	linkRe = regexp.MustCompile(`^(?i)link\s+(\d{6})$`)
	bookRe = regexp.MustCompile(`^(?i)book\s+(\w+)\s+(\d{4}-\d{2}-\d{2})\s+(\d{2}:\d{2})(?:\s+"([^"]+)")?$`)
	helpRe = regexp.MustCompile(`^(?i)(help|\?)$`)
)

// ParseCommand turns raw message text into a Command.
func ParseCommand(text string) Command {
	t := strings.TrimSpace(text)

	if m := linkRe.FindStringSubmatch(t); m != nil {
		return Command{Verb: VerbLink, Code: m[1]}
	}

	if m := bookRe.FindStringSubmatch(t); m != nil {
		return Command{
			Verb:     VerbBook,
			Facility: strings.ToLower(m[1]),
			Date:     m[2],
			Time:     m[3],
			Project:  m[4],
		}
	}

	if helpRe.MatchString(t) {
		return Command{Verb: VerbHelp}
	}

	return Command{Verb: VerbUnknown}
}

// NormalizeMsisdn strips everything but digits; the Cloud API delivers
// sender numbers like "27123456789".
func NormalizeMsisdn(n string) string {
	var b strings.Builder
	for _, r := range n {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
