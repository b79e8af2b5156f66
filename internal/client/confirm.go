package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

const (
	ClearConfirmMessage = "Are you sure you want to clear the database? This action cannot be undone."
	ClearSuccessMessage = "Database cleared successfully."
	ClearFailureMessage = "Failed to clear the database."
	CopiedMessage       = "URL copied to clipboard!"
)

// Prompter is the user-facing side of an admin action.
type Prompter interface {
	Confirm(message string) bool
	Alert(message string)
	Reload()
}

type ClearOutcome int

const (
	ClearCancelled ClearOutcome = iota
	ClearSucceeded
	ClearRejected
	ClearNetworkError
)

func (o ClearOutcome) String() string {
	switch o {
	case ClearCancelled:
		return "cancelled"
	case ClearSucceeded:
		return "succeeded"
	case ClearRejected:
		return "rejected"
	case ClearNetworkError:
		return "network error"
	}
	return "unknown"
}

// ClearDatabase asks for confirmation and then POSTs /clear-database.
// A 2xx answer alerts success and reloads, any other status alerts failure.
// Transport errors are logged and returned without an alert.
func (c *Client) ClearDatabase(ctx context.Context, p Prompter) (ClearOutcome, error) {
	if !p.Confirm(ClearConfirmMessage) {
		return ClearCancelled, nil
	}
	resp, err := c.post(ctx, "/clear-database")
	if err != nil {
		c.logger.Error("Clear database request failed", "error", err)
		return ClearNetworkError, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		p.Alert(ClearSuccessMessage)
		p.Reload()
		return ClearSucceeded, nil
	}
	p.Alert(ClearFailureMessage)
	return ClearRejected, nil
}

// TerminalPrompter asks on a terminal. OnReload may be nil.
type TerminalPrompter struct {
	In       io.Reader
	Out      io.Writer
	OnReload func()

	reader *bufio.Reader
}

func (t *TerminalPrompter) Confirm(message string) bool {
	if t.reader == nil {
		t.reader = bufio.NewReader(t.In)
	}
	fmt.Fprintf(t.Out, "%s [y/N]: ", message)
	line, _ := t.reader.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (t *TerminalPrompter) Alert(message string) {
	fmt.Fprintln(t.Out, message)
}

func (t *TerminalPrompter) Reload() {
	if t.OnReload != nil {
		t.OnReload()
	}
}
