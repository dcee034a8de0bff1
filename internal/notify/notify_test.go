package notify

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_FormatsByLevel(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	w.Notify(Notification{Level: LevelSuccess, Message: "Item added to cart"})
	w.Notify(Notification{Level: LevelFailure, Message: "Failed to add item"})
	w.Notify(Notification{Level: LevelWarning, Message: "Quantity adjusted"})

	assert.Equal(t, "[ok] Item added to cart\n[!!] Failed to add item\n[~~] Quantity adjusted\n", buf.String())
}

func TestNotifierFunc(t *testing.T) {
	var got []Notification
	n := NotifierFunc(func(x Notification) { got = append(got, x) })

	n.Notify(Notification{Message: "hello"})

	assert.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Message)
}
