package yapper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FrameBuildParse(t *testing.T) {
	var id, text = frameParse(frameBuild("AB12", "HI"))

	assert.Equal(t, "AB12", id)
	assert.Equal(t, "HI", text)
}

func Test_FrameParse_SeparatorInText(t *testing.T) {
	// Only the first separator splits; the text keeps its own.
	var id, text = frameParse("AB12|five|six|pickup sticks")

	assert.Equal(t, "AB12", id)
	assert.Equal(t, "five|six|pickup sticks", text)
}

func Test_FrameParse_NoSeparator(t *testing.T) {
	// A frame from a station that predates id tagging gets a
	// synthesised id so dedup downstream still has something to key on.
	var id, text = frameParse("HELLO OUT THERE")

	assert.Len(t, id, messageIDLen)
	assert.Equal(t, "HELLO OUT THERE", text)
}

func Test_FrameParse_EmptyID(t *testing.T) {
	var id, text = frameParse("|orphan")

	assert.Len(t, id, messageIDLen)
	assert.Equal(t, "orphan", text)
}

func Test_NewMessageID(t *testing.T) {
	var id = newMessageID()

	require.Len(t, id, messageIDLen)
	assert.Equal(t, strings.ToUpper(id), id)

	for _, r := range id {
		assert.Contains(t, "0123456789ABCDEF", string(r))
	}
}

func Test_PayloadClean(t *testing.T) {
	assert.Equal(t, "Hellothere", payloadClean("Hello\tthere\n"), "control characters are stripped, not replaced")
	assert.Equal(t, "degrees", payloadClean("degrees°"))
	assert.Equal(t, "~!", payloadClean("~!"), "printable boundary characters survive")
	assert.Equal(t, "", payloadClean("日本語"))
}

func Test_DirectionString(t *testing.T) {
	assert.Equal(t, "outbound", DirOutbound.String())
	assert.Equal(t, "inbound", DirInbound.String())
	assert.Equal(t, "system", DirSystem.String())
}
