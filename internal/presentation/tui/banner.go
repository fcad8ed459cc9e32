package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{` __        ___ _    _                 _           `, "#818cf8"},
	{` \ \      / (_) | _(_)___  ___  _ __ | |__  _   _ `, "#a78bfa"},
	{`  \ \ /\ / /| | |/ / / __|/ _ \| '_ \| '_ \| | | |`, "#c084fc"},
	{`   \ V  V / | |   <| \__ \ (_) | |_) | | | | |_| |`, "#e879f9"},
	{`    \_/\_/  |_|_|\_\_|___/\___/| .__/|_| |_|\__, |`, "#f472b6"},
	{`                               |_|          |___/ `, "#fb7185"},
}

// PrintBanner writes the ASCII art banner to w, colored when the terminal supports it.
func PrintBanner(w io.Writer) {
	p := termenv.NewOutput(w).ColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
