package client

import (
	"fmt"

	clipboard "golang.design/x/clipboard"
)

// CopyText puts text on the system clipboard. Headless systems without a
// clipboard return an error instead of panicking.
func CopyText(text string) (err error) {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("clipboard write failed: %v", r)
		}
	}()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
