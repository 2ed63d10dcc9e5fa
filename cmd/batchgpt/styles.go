package main

import "github.com/charmbracelet/lipgloss"

var styleFaint = lipgloss.NewStyle().Faint(true)
