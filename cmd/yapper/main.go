package main

/*------------------------------------------------------------------
 *
 * Purpose:   	Chat over sound.  No network, no pairing - just a
 *		loudspeaker, a microphone, and patience.
 *
 *----------------------------------------------------------------*/

import (
	yapper "github.com/doismellburning/yapper/src"
)

func main() {
	yapper.YapperMain()
}
