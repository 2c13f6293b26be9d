package yapper

/*------------------------------------------------------------------
 *
 * Purpose:   	Half-duplex channel control.
 *
 * Description:	There is one acoustic channel and it carries either
 *		a transmission or a reception, never both.  User
 *		sends, scheduled relays, and the receive path all
 *		contend for this single busy flag.
 *
 *		Acquisition is a one-token semaphore so a user send
 *		can block politely until the channel frees up, while
 *		the relay scheduler and the per-sample receive path
 *		use the non-blocking form and just try again later.
 *
 *---------------------------------------------------------------*/

import (
	"sync/atomic"
)

type ChannelState int32

const (
	ChannelIdle ChannelState = iota
	ChannelTransmit
	ChannelReceive
)

func (s ChannelState) String() string {
	switch s {
	case ChannelIdle:
		return "idle"
	case ChannelTransmit:
		return "transmit"
	case ChannelReceive:
		return "receive"
	}

	return "unknown"
}

type Channel struct {
	token chan struct{}
	state atomic.Int32
}

func NewChannel() *Channel {
	var c = &Channel{
		token: make(chan struct{}, 1),
	}
	c.token <- struct{}{}

	return c
}

// Acquire blocks until the channel is free, then claims it.
func (c *Channel) Acquire(s ChannelState) {
	<-c.token
	c.state.Store(int32(s))
}

// TryAcquire claims the channel only if it is free right now.
// This is the form used on the receive hot path and by the relay
// scheduler - neither may block.
func (c *Channel) TryAcquire(s ChannelState) bool {
	select {
	case <-c.token:
		c.state.Store(int32(s))

		return true
	default:
		return false
	}
}

// Release frees the channel.  Only the holder may call it.
func (c *Channel) Release() {
	c.state.Store(int32(ChannelIdle))
	c.token <- struct{}{}
}

func (c *Channel) State() ChannelState {
	return ChannelState(c.state.Load())
}

// Busy reports whether a transmission or reception is in progress.
func (c *Channel) Busy() bool {
	return c.State() != ChannelIdle
}
