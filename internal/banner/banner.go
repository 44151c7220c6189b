package banner

import (
	"loadgen/internal/tui/styles"
	"loadgen/version"

	"github.com/charmbracelet/lipgloss"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	ascii := `
    __                   __                
   / /___  ____ _____/ /___ ____  ____ 
  / / __ \/ __ '/ __  / __ '/ _ \/ __ \
 / / /_/ / /_/ / /_/ / /_/ /  __/ / / /
/_/\____/\__,_/\__,_/\__, /\___/_/ /_/ 
                    /____/             `

	return "\n" + style.Render(ascii) + "\n" + styles.Subtle.Render("  fixed-rate HTTP load generator "+version.String()) + "\n"
}
