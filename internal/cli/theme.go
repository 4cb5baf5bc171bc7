package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ColorRole identifies a semantic color in the theme.
type ColorRole int

const (
	RoleSuccess ColorRole = iota
	RoleError
	RoleWarn
	RoleInfo
	RoleAccent
	RoleHeading
	RoleMuted
	RolePrompt
)

// Theme maps color roles to lipgloss colors. An empty color leaves text
// unstyled.
type Theme struct {
	Name   string
	Colors map[ColorRole]lipgloss.Color
}

// Built-in themes.
//
//	Accent:  #E85D3A
//	Success: #2D8C5A
//	Error:   #C43030
//	Warning: #D4940A
//	Muted:   #8C8C8C
var themes = map[string]*Theme{
	"default": {
		Name: "default",
		Colors: map[ColorRole]lipgloss.Color{
			RoleSuccess: "#2D8C5A",
			RoleError:   "#C43030",
			RoleWarn:    "#D4940A",
			RoleInfo:    "6", // ANSI cyan, readable on dark and light
			RoleAccent:  "#E85D3A",
			RoleHeading: "#E85D3A",
			RoleMuted:   "#8C8C8C",
			RolePrompt:  "#E85D3A",
		},
	},
	"dark": {
		Name: "dark",
		Colors: map[ColorRole]lipgloss.Color{
			RoleSuccess: "#50DC78",
			RoleError:   "#FF5050",
			RoleWarn:    "#FFC83C",
			RoleInfo:    "#64B4DC",
			RoleAccent:  "#FF7850",
			RoleHeading: "#FFFFFF",
			RoleMuted:   "#787878",
			RolePrompt:  "#FF7850",
		},
	},
	"light": {
		Name: "light",
		Colors: map[ColorRole]lipgloss.Color{
			RoleSuccess: "#1E643C",
			RoleError:   "#A01E1E",
			RoleWarn:    "#A06E00",
			RoleInfo:    "#3C3C3C",
			RoleAccent:  "#C84628",
			RoleHeading: "#1E1E1E",
			RoleMuted:   "#8C8C8C",
			RolePrompt:  "#C84628",
		},
	},
	"minimal": {
		Name:   "minimal",
		Colors: map[ColorRole]lipgloss.Color{},
	},
}

// currentTheme is the active theme.
var currentTheme = themes["default"]

// SetTheme changes the active theme. Returns an error if the name is unknown.
func SetTheme(name string) error {
	t, ok := themes[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("unknown theme %q, available: %s", name, strings.Join(ThemeNames(), ", "))
	}
	currentTheme = t
	return nil
}

// CurrentThemeName returns the name of the active theme.
func CurrentThemeName() string {
	return currentTheme.Name
}

// ThemeNames returns the list of available theme names in display order.
func ThemeNames() []string {
	return []string{"default", "dark", "light", "minimal"}
}

// Style returns the lipgloss style of a role in the current theme.
func Style(role ColorRole) lipgloss.Style {
	s := lipgloss.NewStyle()
	if c := currentTheme.Colors[role]; c != "" {
		s = s.Foreground(c)
	}
	if role == RoleHeading {
		s = s.Bold(true)
	}
	return s
}

// Colorize renders msg in the current theme's style for the given role.
func Colorize(role ColorRole, msg string) string {
	if !ColorEnabled {
		return msg
	}
	return Style(role).Render(msg)
}

// Accent formats text in the theme's accent color.
func Accent(msg string) string {
	return Colorize(RoleAccent, msg)
}

// Heading formats text in the theme's heading style.
func Heading(msg string) string {
	return Colorize(RoleHeading, msg)
}

// Muted formats text in the theme's muted color.
func Muted(msg string) string {
	return Colorize(RoleMuted, msg)
}
