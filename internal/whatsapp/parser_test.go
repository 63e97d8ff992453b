package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Command
	}{
		{
			name: "Link",
			text: "link 123456",
			want: Command{Verb: VerbLink, Code: "123456"},
		},
		{
			name: "LinkCaseInsensitive",
			text: "LINK 654321",
			want: Command{Verb: VerbLink, Code: "654321"},
		},
		{
			name: "LinkShortCode",
			text: "link 1234",
			want: Command{Verb: VerbUnknown},
		},
		{
			name: "Book",
			text: "book studio 2025-09-05 10:00",
			want: Command{Verb: VerbBook, Facility: "studio", Date: "2025-09-05", Time: "10:00"},
		},
		{
			name: "BookWithProject",
			text: `book studio 2025-09-05 10:00 "Podcast shoot"`,
			want: Command{Verb: VerbBook, Facility: "studio", Date: "2025-09-05", Time: "10:00", Project: "Podcast shoot"},
		},
		{
			name: "BookFacilityLowercased",
			text: "book STUDIO 2025-09-05 10:00",
			want: Command{Verb: VerbBook, Facility: "studio", Date: "2025-09-05", Time: "10:00"},
		},
		{
			name: "BookBadDate",
			text: "book studio 05-09-2025 10:00",
			want: Command{Verb: VerbUnknown},
		},
		{
			name: "Help",
			text: "help",
			want: Command{Verb: VerbHelp},
		},
		{
			name: "HelpQuestionMark",
			text: "?",
			want: Command{Verb: VerbHelp},
		},
		{
			name: "WhitespaceTrimmed",
			text: "  link 123456  ",
			want: Command{Verb: VerbLink, Code: "123456"},
		},
		{
			name: "Gibberish",
			text: "reserve the moon please",
			want: Command{Verb: VerbUnknown},
		},
		{
			name: "Empty",
			text: "",
			want: Command{Verb: VerbUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCommand(tt.text))
		})
	}
}

func TestNormalizeMsisdn(t *testing.T) {
	assert.Equal(t, "27123456789", NormalizeMsisdn("27123456789"))
	assert.Equal(t, "27123456789", NormalizeMsisdn("+27 123 456-789"))
	assert.Equal(t, "", NormalizeMsisdn("abc"))
}
