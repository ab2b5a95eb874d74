package cmn

import (
	"strconv"
	"strings"
)

/*
	ansi escape sequences for terminal output.

	fmt.Printf("%vsynced%v\n", cmn.ForeGreen|cmn.AttrBold, cmn.AttrOff)
*/

type AnsiFlag uint32

const (
	AttrOff AnsiFlag = iota
	AttrBold
	_
	_
	AttrUnderscore
	AttrBlink
	_
	AttrReverseVideo
	AttrConcealed
)

const (
	ForeBlack AnsiFlag = (iota + 30) << 8
	ForeRed
	ForeGreen
	ForeYellow
	ForeBlue
	ForeMagenta
	ForeCyan
	ForeWhite
)

const (
	BackBlack AnsiFlag = (iota + 40) << 16
	BackRed
	BackGreen
	BackYellow
	BackBlue
	BackMagenta
	BackCyan
	BackWhite
)

// String renders the escape sequence: one byte each for attribute,
// foreground and background.
func (f AnsiFlag) String() string {
	var parts []string
	for i := 0; i < 3; i++ {
		if b := f & 0xFF; b != 0 {
			parts = append(parts, strconv.Itoa(int(b)))
		}
		f >>= 8
	}
	if len(parts) == 0 {
		parts = []string{"0"}
	}
	return "\033[" + strings.Join(parts, ";") + "m"
}
