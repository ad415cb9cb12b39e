package printing

import "bytes"

// ESC/POS command bytes understood by the venue's thermal printers.
var (
	cmdInit        = []byte{0x1B, 0x40}
	cmdAlignLeft   = []byte{0x1B, 0x61, 0x00}
	cmdAlignCenter = []byte{0x1B, 0x61, 0x01}
	cmdBoldOn      = []byte{0x1B, 0x45, 0x01}
	cmdBoldOff     = []byte{0x1B, 0x45, 0x00}
	cmdDoubleOn    = []byte{0x1D, 0x21, 0x11}
	cmdDoubleOff   = []byte{0x1D, 0x21, 0x00}
	cmdFeed        = []byte{0x1B, 0x64, 0x04}
	cmdCut         = []byte{0x1D, 0x56, 0x00}
)

// escpos accumulates a receipt.
type escpos struct {
	buf bytes.Buffer
}

func newESCPOS() *escpos {
	e := &escpos{}
	e.buf.Write(cmdInit)
	return e
}

func (e *escpos) center() *escpos { e.buf.Write(cmdAlignCenter); return e }
func (e *escpos) left() *escpos   { e.buf.Write(cmdAlignLeft); return e }

func (e *escpos) bold(on bool) *escpos {
	if on {
		e.buf.Write(cmdBoldOn)
	} else {
		e.buf.Write(cmdBoldOff)
	}
	return e
}

func (e *escpos) double(on bool) *escpos {
	if on {
		e.buf.Write(cmdDoubleOn)
	} else {
		e.buf.Write(cmdDoubleOff)
	}
	return e
}

func (e *escpos) line(s string) *escpos {
	e.buf.WriteString(s)
	e.buf.WriteByte('\n')
	return e
}

func (e *escpos) rule() *escpos { return e.line("--------------------------------") }

func (e *escpos) cut() []byte {
	e.buf.Write(cmdFeed)
	e.buf.Write(cmdCut)
	return e.buf.Bytes()
}
