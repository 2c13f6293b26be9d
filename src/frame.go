package yapper

/*------------------------------------------------------------------
 *
 * Purpose:   	Wire-level framing.
 *
 * Description:	What actually goes over the air is
 *
 *			id SEPARATOR text
 *
 *		The id is a short opaque token used only for
 *		duplicate suppression, so a message heard twice
 *		(directly and again via a relay) is displayed once.
 *
 *		Text may itself contain the separator; only the
 *		first occurrence splits the frame.  A frame with no
 *		separator at all is treated as text from a station
 *		that predates id tagging, and gets a locally
 *		synthesised id.
 *
 *---------------------------------------------------------------*/

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const FrameSeparator = "|"

/* Length of generated ids.  Four hex digits is plenty for a chat
   session and every extra character costs real air time. */

const messageIDLen = 4

type Direction int

const (
	DirOutbound Direction = iota
	DirInbound
	DirSystem
)

func (d Direction) String() string {
	switch d {
	case DirOutbound:
		return "outbound"
	case DirInbound:
		return "inbound"
	case DirSystem:
		return "system"
	}

	return "unknown"
}

// Message is what the display layer consumes.  Immutable once created.
type Message struct {
	ID        string
	Text      string
	Direction Direction
	Timestamp time.Time
}

// newMessageID generates a fresh short id.  Derived from a UUID so
// two stations composing at the same moment won't collide.
func newMessageID() string {
	var u = uuid.New()

	return strings.ToUpper(u.String()[:messageIDLen])
}

// payloadClean strips characters that have no tone assignment.
// Returns the transmittable remainder, which may be empty.
func payloadClean(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if r >= MinCharCode && r <= MaxCharCode {
			b.WriteRune(r)
		}
	}

	return b.String()
}

func frameBuild(id string, text string) string {
	return id + FrameSeparator + text
}

/*------------------------------------------------------------------
 *
 * Name:	frameParse
 *
 * Purpose:	Split a received frame into id and text.
 *
 * Returns:	id	- Token before the first separator, or a
 *			  freshly synthesised id when the frame had
 *			  none (or an empty one).
 *
 *		text	- Everything after the first separator,
 *			  rejoined verbatim.
 *
 *----------------------------------------------------------------*/

func frameParse(frame string) (string, string) {
	var id, text, found = strings.Cut(frame, FrameSeparator)

	if !found {
		// Malformed or pre-id-tagging frame.  Not an error;
		// give it an id so dedup still works downstream.
		return newMessageID(), frame
	}

	if strings.TrimSpace(id) == "" {
		return newMessageID(), text
	}

	return strings.TrimSpace(id), text
}
