package report

import "github.com/fatih/color"

// palette holds the colors used by text and table output. Each color is
// toggled explicitly so output does not depend on the global color.NoColor.
type palette struct {
	red    *color.Color
	green  *color.Color
	yellow *color.Color
	bold   *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		red:    color.New(color.FgHiRed),
		green:  color.New(color.FgHiGreen),
		yellow: color.New(color.FgHiYellow),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.red, p.green, p.yellow, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}
