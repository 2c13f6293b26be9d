package main

/*------------------------------------------------------------------
 *
 * Purpose:   	Generate sample capture files for testing and
 *		demonstrating the demodulator.
 *
 *----------------------------------------------------------------*/

import (
	yapper "github.com/doismellburning/yapper/src"
)

func main() {
	yapper.YapgenMain()
}
