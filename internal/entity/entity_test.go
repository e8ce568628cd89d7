package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		names  []string
		emails []string
	}{
		{
			name:  "and invite",
			text:  "create an event called Standup tonight at 7pm and invite Jane",
			names: []string{"Jane"},
		},
		{
			name:   "invite an address",
			text:   "create an event called TestEvent tonight at 10pm and invite shaun.stuart@company.com",
			emails: []string{"shaun.stuart@company.com"},
		},
		{
			name:  "with a list",
			text:  "schedule a meeting with Shaun Stuart, Joe Buck and Ana tomorrow at 9am",
			names: []string{"Shaun Stuart", "Joe Buck", "Ana"},
		},
		{
			name:   "mixed names and addresses",
			text:   "lunch with Bob and carol@example.org about the budget",
			names:  []string{"Bob"},
			emails: []string{"carol@example.org"},
		},
		{
			name:  "to needs a proper name",
			text:  "send the agenda to Priya and then talk to discuss roadmap",
			names: []string{"Priya"},
		},
		{
			name:  "stop at recurrence words",
			text:  "standup with Dana every weekday at 9am",
			names: []string{"Dana"},
		},
		{
			name:  "groups are not people",
			text:  "schedule a zoom meeting with the team",
			names: nil,
		},
		{
			name:   "addresses anywhere",
			text:   "sync about launch, cc ops@example.com and OPS@example.com",
			emails: []string{"ops@example.com"},
		},
		{
			name:  "sentence end",
			text:  "Review with Kim. Bring slides",
			names: []string{"Kim"},
		},
		{
			name:   "invite at the start",
			text:   "invite joe@x.com and Mary to a meeting called Sync at 4pm",
			names:  []string{"Mary"},
			emails: []string{"joe@x.com"},
		},
		{
			name:  "invite at the start with names only",
			text:  "Invite Ann and Ben to the planning session",
			names: []string{"Ann", "Ben"},
		},
		{
			name:  "case-insensitive dedup keeps first spelling",
			text:  "call with Jane and invite jane",
			names: []string{"Jane"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			assert.Equal(t, tt.names, got.Names)
			assert.Equal(t, tt.emails, got.Emails)
		})
	}
}

func TestExtractNamesAndEmailsDisjoint(t *testing.T) {
	inputs := []string{
		"meet with a@b.co, Bob and invite c@d.io",
		"invite x@y.com and X@Y.com to the party",
		"with Alice, alice@example.com and Bob",
	}
	for _, in := range inputs {
		got := Extract(in)
		for _, n := range got.Names {
			assert.False(t, IsEmail(n), "name %q looks like an address", n)
			for _, e := range got.Emails {
				assert.NotEqual(t, strings.ToLower(n), strings.ToLower(e))
			}
		}
	}
}

func TestMergeReroutes(t *testing.T) {
	got := Merge(
		[]string{"Jane", "jane@example.com"},
		[]string{"Bob", "bob@example.com"},
		Result{Names: []string{"jane"}, Emails: []string{"BOB@example.com"}},
	)
	assert.Equal(t, []string{"Jane", "Bob"}, got.Names)
	assert.Equal(t, []string{"jane@example.com", "bob@example.com"}, got.Emails)
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("first.last+tag@mail.example.com"))
	assert.True(t, IsEmail("  a@b.io "))
	assert.False(t, IsEmail("a@b"))
	assert.False(t, IsEmail("Bob a@b.io"))
	assert.False(t, IsEmail("plain"))
}

func TestExtractLocation(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"standup location: HQ 3rd floor, bring coffee", "HQ 3rd floor", true},
		{"interview located at 5 Main St tomorrow", "5 Main St", true},
		{"design review in room 4b at 2pm", "Room 4b", true},
		{"lunch at the Corner Bistro at noon", "Corner Bistro", true},
		{"coffee with Sam at Blue Bottle tomorrow at 9am", "Blue Bottle", true},
		{"create an event called Review at Acme HQ at 3pm", "Acme HQ", true},
		{"call at Noon", "", false},
		{"meeting at Zoom", "", false},
		{"standup at 9am", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractLocation(tt.text)
		require.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}
