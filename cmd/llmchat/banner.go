package main

import (
	"fmt"
	"strings"

	"github.com/mazznoer/colorgrad"
)

// getBanner returns a colorized ASCII art banner
func getBanner(version string) string {
	banner := `
  _ _                 _           _
 | | |_ __ ___   ___| |__   __ _| |_
 | | | '_ ' _ \ / __| '_ \ / _' | __|
 | | | | | | | | (__| | | | (_| | |_
 |_|_|_| |_| |_|\___|_| |_|\__,_|\__|
  talk to a model, let it call tools  [v` + version + `]
`
	grad, _ := colorgrad.NewGradient().
		HtmlColors("#00c6ffff", "#f0f0f0ff").
		Build()

	lines := strings.Split(banner, "\n")

	maxLen := 0
	for _, line := range lines {
		if n := len([]rune(line)); n > maxLen {
			maxLen = n
		}
	}

	colors := grad.Colors(uint(maxLen))
	var coloredBanner strings.Builder

	for _, line := range lines {
		for i, ch := range []rune(line) {
			r, g, b, _ := colors[i].RGBA255()
			coloredBanner.WriteString(fmt.Sprintf("\x1b[38;2;%d;%d;%dm%c", r, g, b, ch))
		}
		coloredBanner.WriteString("\x1b[0m\n")
	}

	return coloredBanner.String()
}
