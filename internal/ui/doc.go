// Package ui renders a design job's progress in the terminal with Bubble Tea.
package ui
