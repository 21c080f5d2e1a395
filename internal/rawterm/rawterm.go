// Package rawterm is a small wrapper around github.com/pkg/term/termios,
// lifting the input file descriptor into cbreak mode so a single keystroke
// (step, continue, quit) can be read without waiting for a newline. It is
// the same idiom the reference debugger's easyterm package uses for its
// interactive terminal, trimmed to the one mode this project's
// --interactive flag needs.
package rawterm

import (
	"os"
	"syscall"

	"github.com/pkg/term/termios"
)

// RawTerm puts an input file into cbreak mode for its lifetime and restores
// the original terminal attributes on Close.
type RawTerm struct {
	input    *os.File
	original syscall.Termios
}

// Open switches input into cbreak mode (unbuffered, no local echo of
// control characters) suitable for a single-keystroke command loop.
func Open(input *os.File) (*RawTerm, error) {
	rt := &RawTerm{input: input}
	if err := termios.Tcgetattr(input.Fd(), &rt.original); err != nil {
		return nil, err
	}

	var cbreak syscall.Termios
	termios.Cfmakecbreak(&cbreak)
	if err := termios.Tcsetattr(input.Fd(), termios.TCSANOW, &cbreak); err != nil {
		return nil, err
	}
	return rt, nil
}

// ReadKey blocks for exactly one byte from the terminal.
func (rt *RawTerm) ReadKey() (byte, error) {
	var buf [1]byte
	_, err := rt.input.Read(buf[:])
	return buf[0], err
}

// Close restores the terminal attributes captured by Open.
func (rt *RawTerm) Close() error {
	return termios.Tcsetattr(rt.input.Fd(), termios.TCSANOW, &rt.original)
}
