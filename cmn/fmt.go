// Package cmn holds the helpers shared by the command line tools: source
// file iteration and terminal output.
package cmn

import (
	"fmt"
	"io"
	"os"
)

const (
	MediumMark        = "✓"
	MediumX           = "✕"
	MediumBulletPoint = "•"
)

/*
	Printer writes progress to the terminal.
	With Raw set every line is printed without escape sequences or marks,
	which is what you want when piping the output.
*/
type Printer struct {
	Raw bool
	Out io.Writer
	Err io.Writer
}

func NewPrinter(raw bool) *Printer {
	return &Printer{Raw: raw, Out: os.Stdout, Err: os.Stderr}
}

func (p *Printer) line(w io.Writer, prefix, mark string, seq AnsiFlag, format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)
	if p.Raw {
		fmt.Fprintln(w, text)
		return
	}
	fmt.Fprintf(w, "%s%v%s %s%v\n", prefix, seq, mark, text, AttrOff)
}

// Println prints a line as is.
func (p *Printer) Println(format string, args ...interface{}) {
	fmt.Fprintf(p.Out, format+"\n", args...)
}

func (p *Printer) Success(prefix, format string, args ...interface{}) {
	p.line(p.Err, prefix, MediumMark, ForeGreen, format, args...)
}

func (p *Printer) Warn(prefix, format string, args ...interface{}) {
	p.line(p.Err, prefix, MediumX, ForeYellow, format, args...)
}

func (p *Printer) Notify(prefix, format string, args ...interface{}) {
	p.line(p.Out, prefix, MediumBulletPoint, ForeBlue, format, args...)
}

func (p *Printer) Error(err error) {
	if p.Raw {
		fmt.Fprintf(p.Err, "%s\n", err)
		return
	}
	fmt.Fprintf(p.Err, "%v%s%v\n", ForeRed, err, AttrOff)
}
