package yapper

/*------------------------------------------------------------------
 *
 * Purpose:   	Decoded message queue.
 *
 * Description:	Committed inbound messages are produced on the
 *		spectral-analysis tick and consumed by the
 *		application loop (display, transcript, logging).
 *		This queue decouples the two so the tick path never
 *		waits on display work.
 *
 *		The buffer is generous relative to how fast messages
 *		can physically arrive over a tone channel, so a full
 *		queue means the consumer is wedged; dropping with a
 *		warning beats stalling the decoder.
 *
 *---------------------------------------------------------------*/

import (
	"github.com/charmbracelet/log"
)

const messageQueueDepth = 64

type MessageQueue struct {
	ch chan Message
}

func NewMessageQueue() *MessageQueue {
	return &MessageQueue{
		ch: make(chan Message, messageQueueDepth),
	}
}

// Append adds a message without blocking.
func (q *MessageQueue) Append(m Message) {
	select {
	case q.ch <- m:
	default:
		log.Warn("message queue full, dropping", "id", m.ID)
	}
}

// Messages is the consumer side.
func (q *MessageQueue) Messages() <-chan Message {
	return q.ch
}

// Close ends the stream.  Call only after the producer has stopped.
func (q *MessageQueue) Close() {
	close(q.ch)
}
