package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinterPlainOnNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	assert.False(t, IsTerminal(&buf))

	p.Command(`ducktape note create "Groceries" "Notes"`)
	p.Hint("add a time")
	p.Error(errors.New("boom"))
	p.Line("%d events", 2)
	p.Secondary("from %s", "cache")

	want := "ducktape note create \"Groceries\" \"Notes\"\n" +
		"ℹ add a time\n" +
		"✗ boom\n" +
		"2 events\n" +
		"from cache\n"
	assert.Equal(t, want, buf.String())
}
