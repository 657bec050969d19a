// Package ui prints colored status lines for the command-line tool.
// Everything goes to Output (stderr by default) so stdout stays machine-readable.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Output receives all status lines
var Output io.Writer = os.Stderr

const headerWidth = 60

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	stepColor    = color.New(color.FgBlue, color.Bold)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgWhite)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	blueColor    = color.New(color.FgBlue)
	yellowColor  = color.New(color.FgYellow)
)

// Header prints a boxed section title
func Header(text string) {
	line := strings.Repeat("=", headerWidth)
	headerColor.Fprintln(Output, line)
	headerColor.Fprintln(Output, center(text, headerWidth))
	headerColor.Fprintln(Output, line)
}

// Step prints a numbered progress step
func Step(n, total int, text string) {
	stepColor.Fprintf(Output, "[%d/%d] ", n, total)
	fmt.Fprintln(Output, text)
}

// Success prints a success line
func Success(text string) {
	successColor.Fprintf(Output, "  ✓ %s\n", text)
}

// Info prints an informational line
func Info(text string) {
	infoColor.Fprintf(Output, "  • %s\n", text)
}

// Warning prints a warning line
func Warning(text string) {
	warningColor.Fprintf(Output, "  ! %s\n", text)
}

// Error prints an error line
func Error(text string) {
	errorColor.Fprintf(Output, "  ✗ %s\n", text)
}

// BlueText returns text colored blue
func BlueText(text string) string {
	return blueColor.Sprint(text)
}

// YellowText returns text colored yellow
func YellowText(text string) string {
	return yellowColor.Sprint(text)
}

// Statement prints the outcome of one parsed file. Files with errors are
// shown as warnings when they still produced transactions.
func Statement(fileName, bankName string, transactions, errors int) {
	msg := fmt.Sprintf("%s [%s]: %d transactions", fileName, BlueText(bankName), transactions)
	switch {
	case errors == 0:
		Success(msg)
	case transactions > 0:
		Warning(fmt.Sprintf("%s, %s", msg, YellowText(fmt.Sprintf("%d errors", errors))))
	default:
		Error(fmt.Sprintf("%s, %d errors", msg, errors))
	}
}

// center left-pads text so it sits in the middle of width columns
func center(text string, width int) string {
	n := utf8.RuneCountInString(text)
	if n >= width {
		return text
	}
	return strings.Repeat(" ", (width-n)/2) + text
}
