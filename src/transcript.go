package yapper

/*------------------------------------------------------------------
 *
 * Purpose:	Save the chat transcript to a file.
 *
 * Description:	Messages go out as CSV for easy reading and later
 *		processing.  Two alternatives:
 *
 *		-L file		Specify the full file path.
 *
 *		-l dir		Daily names will be created here.
 *
 *		Use one or the other but not both.  The file is
 *		kept open between messages; with daily names it is
 *		rolled when the date changes.
 *
 *		Transcript trouble is logged and otherwise ignored -
 *		a failing disk should not take the chat down.
 *
 *---------------------------------------------------------------*/

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

const transcriptHeader = "utime,time,direction,id,mode,text"

type Transcript struct {
	mu sync.Mutex

	daily      bool
	path       string /* directory when daily, file otherwise */
	timeFormat string /* strftime format for the time column */

	f        *os.File
	w        *csv.Writer
	openName string /* current file name, daily mode only */
}

/*------------------------------------------------------------------
 *
 * Name:	TranscriptOpen
 *
 * Purpose:	Set up transcript writing.
 *
 * Inputs:	path	- File name, or directory when daily.
 *
 *		daily	- Generate date-based names in path.
 *
 * Description:	The actual file is opened lazily on the first
 *		message, so an unused -l directory stays empty.
 *
 *----------------------------------------------------------------*/

func TranscriptOpen(path string, daily bool, timeFormat string) (*Transcript, error) {
	if daily {
		var stat, statErr = os.Stat(path)

		switch {
		case statErr == nil && !stat.IsDir():
			return nil, fmt.Errorf("transcript location %s is not a directory", path)
		case statErr != nil:
			// Doesn't exist.  Try to create it.  Parent must exist;
			// we don't create multiple levels like "mkdir -p".
			if mkdirErr := os.Mkdir(path, 0755); mkdirErr != nil {
				return nil, fmt.Errorf("creating transcript location: %w", mkdirErr)
			}

			log.Info("created transcript directory", "path", path)
		}
	}

	return &Transcript{
		daily:      daily,
		path:       path,
		timeFormat: timeFormat,
	}, nil
}

// Record appends one message.  Never fails upward.
func (t *Transcript) Record(m Message, mode string) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var now = m.Timestamp

	if t.daily {
		var fname = now.UTC().Format("2006-01-02.csv")

		// Roll the file when the date changes.
		if t.f != nil && fname != t.openName {
			t.closeLocked()
		}

		if t.f == nil {
			t.openLocked(filepath.Join(t.path, fname), fname)
		}
	} else if t.f == nil {
		t.openLocked(t.path, "")
	}

	if t.f == nil {
		return
	}

	var stamp, stampErr = strftime.Format(t.timeFormat, now)
	if stampErr != nil {
		stamp = now.Format(time.RFC3339)
	}

	t.w.Write([]string{
		fmt.Sprintf("%d", now.Unix()),
		stamp,
		m.Direction.String(),
		m.ID,
		mode,
		m.Text,
	})
	t.w.Flush()

	if err := t.w.Error(); err != nil {
		log.Error("transcript write failed", "err", err)
	}
}

func (t *Transcript) openLocked(fullPath string, fname string) {
	// Header only when this will be the first line.
	var _, statErr = os.Stat(fullPath)
	var alreadyThere = statErr == nil

	var f, openErr = os.OpenFile(fullPath, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0644)
	if openErr != nil {
		log.Error("can't open transcript file", "path", fullPath, "err", openErr)

		return
	}

	log.Info("opened transcript file", "path", fullPath)

	t.f = f
	t.w = csv.NewWriter(f)
	t.openName = fname

	if !alreadyThere {
		fmt.Fprintf(f, "%s\n", transcriptHeader)
	}
}

func (t *Transcript) closeLocked() {
	if t.f == nil {
		return
	}

	t.w.Flush()
	t.f.Close()
	t.f = nil
	t.w = nil
	t.openName = ""
}

// Close flushes and closes any open file.
func (t *Transcript) Close() {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.closeLocked()
}
