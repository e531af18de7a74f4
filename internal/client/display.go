// Package client handles client-side display and user interface
package client

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"ttts/internal/game"
	"ttts/internal/network"
)

type Display struct {
	out io.Writer

	serverColor  *color.Color
	gameColor    *color.Color
	winColor     *color.Color
	loseColor    *color.Color
	drawColor    *color.Color
	warningColor *color.Color
	infoColor    *color.Color
	playerColor  *color.Color
	enemyColor   *color.Color
}

// NewDisplay creates a new display instance with configured colors
func NewDisplay() *Display {
	return newDisplay(os.Stdout)
}

func newDisplay(out io.Writer) *Display {
	return &Display{
		out:          out,
		serverColor:  color.New(color.FgCyan, color.Bold),
		gameColor:    color.New(color.FgYellow, color.Bold),
		winColor:     color.New(color.FgGreen, color.Bold, color.BgBlack),
		loseColor:    color.New(color.FgRed, color.Bold, color.BgBlack),
		drawColor:    color.New(color.FgYellow, color.Bold),
		warningColor: color.New(color.FgYellow),
		infoColor:    color.New(color.FgWhite),
		playerColor:  color.New(color.FgCyan),
		enemyColor:   color.New(color.FgMagenta),
	}
}

// PrintBanner displays the game banner
func (d *Display) PrintBanner() {
	banner := `
╔═══════════════════════════════════════╗
║          TIC-TAC-TOE CLIENT           ║
╚═══════════════════════════════════════╝
`
	d.gameColor.Fprintln(d.out, banner)
}

// PrintServerStatus displays server connection status
func (d *Display) PrintServerStatus(message string) {
	timestamp := time.Now().Format("15:04:05")
	d.serverColor.Fprintf(d.out, "[%s] [SERVER] %s\n", timestamp, message)
}

// PrintMatch announces the opponent and our role.
func (d *Display) PrintMatch(role game.Mark, opponent string) {
	timestamp := time.Now().Format("15:04:05")
	d.gameColor.Fprintf(d.out, "[%s] [MATCH] You play %s against %s\n", timestamp, role, opponent)
	if role == game.X {
		d.playerColor.Fprintln(d.out, "You move first.")
	} else {
		d.enemyColor.Fprintf(d.out, "Waiting for %s to move...\n", opponent)
	}
}

// PrintMove logs a placed mark.
func (d *Display) PrintMove(mark game.Mark, position string, mine bool) {
	timestamp := time.Now().Format("15:04:05")
	if mine {
		d.playerColor.Fprintf(d.out, "[%s] [MOVE] You placed %s at %s\n", timestamp, mark, position)
	} else {
		d.enemyColor.Fprintf(d.out, "[%s] [MOVE] Opponent placed %s at %s\n", timestamp, mark, position)
	}
}

// PrintBoard draws the grid with column and row numbers. Our marks use
// playerColor.
func (d *Display) PrintBoard(b game.Board, role game.Mark) {
	d.infoColor.Fprintln(d.out, "    1   2   3")
	for row := 1; row <= 3; row++ {
		d.infoColor.Fprintf(d.out, "%d ", row)
		for col := 1; col <= 3; col++ {
			m := b.At(col, row)
			switch {
			case m == game.Empty:
				fmt.Fprint(d.out, "   ")
			case m == role:
				d.playerColor.Fprint(d.out, " "+m.String()+" ")
			default:
				d.enemyColor.Fprint(d.out, " "+m.String()+" ")
			}
			if col < 3 {
				d.infoColor.Fprint(d.out, "|")
			}
		}
		fmt.Fprintln(d.out)
		if row < 3 {
			d.infoColor.Fprintln(d.out, "  ---+---+---")
		}
	}
}

// PrintDraw reports a draw negotiation frame from the opponent.
func (d *Display) PrintDraw(subtype byte) {
	switch subtype {
	case network.DrawSuggest:
		d.drawColor.Fprintln(d.out, "[DRAW] Opponent suggests a draw. Answer with 'draw a' or 'draw r'.")
	case network.DrawReject:
		d.warningColor.Fprintln(d.out, "[DRAW] Opponent rejected your draw request.")
	default:
		d.drawColor.Fprintf(d.out, "[DRAW] %c\n", subtype)
	}
}

// PrintOutcome displays the final OVER frame.
func (d *Display) PrintOutcome(outcome network.Outcome, message string) {
	d.PrintSeparator()
	switch outcome {
	case network.OutcomeWin:
		d.winColor.Fprintf(d.out, "VICTORY! %s\n", message)
	case network.OutcomeLoss:
		d.loseColor.Fprintf(d.out, "DEFEAT! %s\n", message)
	default:
		d.drawColor.Fprintf(d.out, "DRAW! %s\n", message)
	}
	d.PrintSeparator()
}

// PrintHelp lists the in-game commands.
func (d *Display) PrintHelp() {
	d.infoColor.Fprintln(d.out, "Commands:")
	d.infoColor.Fprintln(d.out, "  move h,v     place your mark at column h, row v (1-3)")
	d.infoColor.Fprintln(d.out, "  draw s|a|r   suggest, accept or reject a draw")
	d.infoColor.Fprintln(d.out, "  resign       concede the game")
	d.infoColor.Fprintln(d.out, "  help         show this list")
	d.infoColor.Fprintln(d.out, "  quit         leave without resigning")
}

// PrintError displays error messages
func (d *Display) PrintError(message string) {
	d.loseColor.Fprintf(d.out, "[ERROR] %s\n", message)
}

// PrintWarning displays warning messages
func (d *Display) PrintWarning(message string) {
	d.warningColor.Fprintf(d.out, "[WARNING] %s\n", message)
}

// PrintInfo displays informational messages
func (d *Display) PrintInfo(message string) {
	d.infoColor.Fprintf(d.out, "[INFO] %s\n", message)
}

// PrintSeparator prints a visual separator
func (d *Display) PrintSeparator() {
	d.infoColor.Fprintln(d.out, "═══════════════════════════════════════════════════════════════")
}
