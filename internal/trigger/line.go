package trigger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Line drives a single GPIO output connected to the camera's remote
// shutter port.
type Line interface {
	On() error
	Off() error
	Close() error
}

const gpioRoot = "/sys/class/gpio"

// sysfsLine drives a pin through the kernel's sysfs GPIO interface.
type sysfsLine struct {
	pin  int
	root string
}

// NewSysfsLine exports the pin and configures it as an output held low.
func NewSysfsLine(pin int) (Line, error) {
	return newSysfsLine(pin, gpioRoot)
}

func newSysfsLine(pin int, root string) (Line, error) {
	line := &sysfsLine{pin: pin, root: root}
	if err := line.export(); err != nil {
		return nil, err
	}
	if err := line.configure(); err != nil {
		return nil, err
	}
	return line, nil
}

func (l *sysfsLine) export() error {
	if _, err := os.Stat(l.pinDir()); err == nil {
		return nil
	}
	err := os.WriteFile(filepath.Join(l.root, "export"), []byte(strconv.Itoa(l.pin)), 0o200)
	if err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("export gpio %d: %w", l.pin, err)
	}
	// The kernel needs a moment to create the pin directory and fix up
	// its permissions after export.
	for i := 0; i < 10; i++ {
		if _, err := os.Stat(l.pinDir()); err == nil {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("gpio %d did not appear after export", l.pin)
}

func (l *sysfsLine) configure() error {
	if err := os.WriteFile(filepath.Join(l.pinDir(), "direction"), []byte("out"), 0o644); err != nil {
		return fmt.Errorf("set gpio %d direction: %w", l.pin, err)
	}
	return l.Off()
}

func (l *sysfsLine) On() error {
	return l.write("1")
}

func (l *sysfsLine) Off() error {
	return l.write("0")
}

// Close drops the line low and unexports the pin.
func (l *sysfsLine) Close() error {
	offErr := l.Off()
	err := os.WriteFile(filepath.Join(l.root, "unexport"), []byte(strconv.Itoa(l.pin)), 0o200)
	if err != nil {
		return fmt.Errorf("unexport gpio %d: %w", l.pin, err)
	}
	return offErr
}

func (l *sysfsLine) write(value string) error {
	if err := os.WriteFile(filepath.Join(l.pinDir(), "value"), []byte(value), 0o644); err != nil {
		return fmt.Errorf("write gpio %d value: %w", l.pin, err)
	}
	return nil
}

func (l *sysfsLine) pinDir() string {
	return filepath.Join(l.root, "gpio"+strconv.Itoa(l.pin))
}
