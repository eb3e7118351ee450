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
	{" _____ _   _ ____  ___ _   _  ____ ", "#818cf8"},
	{"|_   _| | | |  _ \\|_ _| \\ | |/ ___|", "#a78bfa"},
	{"  | | | | | | |_) || ||  \\| | |  _ ", "#c084fc"},
	{"  | | | |_| |  _ < | || |\\  | |_| |", "#e879f9"},
	{"  |_|  \\___/|_| \\_\\___|_| \\_|\\____|", "#f472b6"},
}

// PrintBanner writes the ASCII art banner to w, coloured for profile.
func PrintBanner(w io.Writer, profile termenv.Profile) {
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, profile.String(l.text).Foreground(profile.Color(l.color)))
	}
	fmt.Fprintln(w)
}
