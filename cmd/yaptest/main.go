package main

/*------------------------------------------------------------------
 *
 * Purpose:   	Replay a sample capture through the demodulator.
 *
 *----------------------------------------------------------------*/

import (
	yapper "github.com/doismellburning/yapper/src"
)

func main() {
	yapper.YaptestMain()
}
