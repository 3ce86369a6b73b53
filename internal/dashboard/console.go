package dashboard

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"GoldBoard/internal/model"
	"GoldBoard/internal/units"
)

const usage = "commands:\n" +
	"  refresh | r          fetch now (ignored during cooldown)\n" +
	"  unit vori|g|kg|oz    choose the display unit\n" +
	"  qty <n>              quantity to value\n" +
	"  karat 24|22          choose purity\n" +
	"  show                 redraw the dashboard\n" +
	"  quit                 exit\n"

// Refresher is the part of the refresh controller the console drives.
type Refresher interface {
	Refresh(ctx context.Context) bool
	State() model.RefreshState
}

// Console renders the dashboard and handles viewer commands.
type Console struct {
	Out    io.Writer
	Now    func() time.Time
	Logger *zerolog.Logger

	mu   sync.Mutex
	ctrl Refresher
	sel  units.Selection
}

// NewConsole creates a console writing to out.
func NewConsole(out io.Writer, sel units.Selection, logger *zerolog.Logger) *Console {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Console{Out: out, Now: time.Now, Logger: logger, sel: sel}
}

// Attach binds the controller the console refreshes and reads from.
func (c *Console) Attach(ctrl Refresher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctrl = ctrl
}

// Selection returns the current unit selection.
func (c *Console) Selection() units.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

// OnChange redraws the dashboard for a new state.
func (c *Console) OnChange(st model.RefreshState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.render(st)
}

// Show redraws the dashboard from the controller's current state.
func (c *Console) Show() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctrl == nil {
		return
	}
	c.render(c.ctrl.State())
}

func (c *Console) render(st model.RefreshState) {
	if err := Render(c.Out, st, c.sel, c.Now()); err != nil {
		c.Logger.Error().Err(err).Msg("render dashboard")
	}
}

// HandleCommand processes a viewer command and returns a reply; quit is set
// when the viewer asked to exit.
func (c *Console) HandleCommand(ctx context.Context, line string) (reply string, quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		c.Show()
		return "", false
	}
	arg := strings.Join(fields[1:], " ")

	switch strings.ToLower(fields[0]) {
	case "refresh", "r", "retry":
		c.mu.Lock()
		ctrl := c.ctrl
		c.mu.Unlock()
		if ctrl != nil && !ctrl.Refresh(ctx) {
			c.Logger.Debug().Msg("manual refresh not started")
		}
		return "", false
	case "unit", "u":
		u, err := units.ParseUnit(arg)
		if err != nil {
			return err.Error(), false
		}
		c.update(func(s *units.Selection) { s.Unit = u })
	case "qty", "quantity":
		q := units.ParseQuantity(arg)
		c.update(func(s *units.Selection) { s.Quantity = q })
	case "karat", "k", "purity":
		p, err := units.ParsePurity(arg)
		if err != nil {
			return err.Error(), false
		}
		c.update(func(s *units.Selection) { s.Purity = p })
	case "show", "s":
		c.Show()
	case "quit", "exit":
		return "", true
	default:
		return usage, false
	}
	return "", false
}

func (c *Console) update(fn func(*units.Selection)) {
	c.mu.Lock()
	fn(&c.sel)
	c.mu.Unlock()
	c.Show()
}

// Run reads commands line by line until ctx is cancelled, in is exhausted or
// the viewer quits.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			c.Logger.Info().Msg("console stopped")
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("read commands: %w", err)
				}
				return nil
			}
			reply, quit := c.HandleCommand(ctx, line)
			if reply != "" {
				c.mu.Lock()
				_, err := io.WriteString(c.Out, reply+"\n")
				c.mu.Unlock()
				if err != nil {
					return fmt.Errorf("write reply: %w", err)
				}
			}
			if quit {
				return nil
			}
		}
	}
}
