// Package ui renders the sync CLIs' human-readable progress output.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const headerWidth = 60

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	blue         = color.New(color.FgBlue).SprintFunc()
	yellow       = color.New(color.FgYellow).SprintFunc()
)

// center left-pads text so it sits in the middle of width columns. Text
// wider than width is returned unchanged.
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}

// Header prints a centered section header between rule lines.
func Header(text string) {
	line := strings.Repeat("=", headerWidth)
	headerColor.Println(line)
	headerColor.Println(center(text, headerWidth))
	headerColor.Println(line)
}

// Step prints a numbered progress step.
func Step(current, total int, text string) {
	fmt.Printf("[%d/%d] %s\n", current, total, text)
}

// Success prints a green checkmark line.
func Success(text string) {
	successColor.Printf("  ✓ %s\n", text)
}

// Info prints a neutral detail line.
func Info(text string) {
	fmt.Printf("    %s\n", text)
}

// Warning prints a yellow warning line.
func Warning(text string) {
	warningColor.Printf("  ! %s\n", text)
}

// Error prints a red failure line.
func Error(text string) {
	errorColor.Printf("  ✗ %s\n", text)
}

// BlueText returns the text colored blue for inline use.
func BlueText(text string) string {
	return blue(text)
}

// YellowText returns the text colored yellow for inline use.
func YellowText(text string) string {
	return yellow(text)
}
