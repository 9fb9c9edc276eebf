// Package console is a line-oriented terminal front end for the workbench.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joseph-ayodele/offerscan/constants"
	"github.com/joseph-ayodele/offerscan/internal/export"
	"github.com/joseph-ayodele/offerscan/internal/repository"
	"github.com/joseph-ayodele/offerscan/internal/selector"
	"github.com/joseph-ayodele/offerscan/internal/table"
	"github.com/joseph-ayodele/offerscan/internal/workbench"
)

// Bench is the set of workbench handlers the console drives.
type Bench interface {
	Upload(ctx context.Context, paths []string) error
	Prev(ctx context.Context) error
	Next(ctx context.Context) error
	EditCell(row, col int, text string) error
	ActivateCrop() bool
	PointerDown(x, y int) bool
	PointerMove(x, y int) bool
	PointerUp(ctx context.Context, x, y int) (selector.Outcome, error)
	Export(ctx context.Context) (export.Result, error)
	Snapshot(w io.Writer) error
	Rows() []table.Row
	Status() string
	Nav() workbench.Nav
	Jobs(ctx context.Context) ([]repository.ExtractJob, error)
}

// Notices prints blocking notices.
type Notices struct {
	Out io.Writer
}

func (n Notices) Notify(msg string) {
	fmt.Fprintf(n.Out, "!! %s\n", msg)
}

type Console struct {
	bench  Bench
	in     io.Reader
	out    io.Writer
	logger *slog.Logger
}

func New(bench Bench, in io.Reader, out io.Writer, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{bench: bench, in: in, out: out, logger: logger}
}

var errQuit = errors.New("quit")

// Run reads commands until quit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	sc := bufio.NewScanner(c.in)
	c.prompt()
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			err := c.Exec(ctx, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
			}
		}
		c.prompt()
	}
	return sc.Err()
}

func (c *Console) prompt() {
	nav := c.bench.Nav()
	if nav.Total == 0 {
		fmt.Fprint(c.out, "offerscan> ")
		return
	}
	fmt.Fprintf(c.out, "offerscan [%d/%d]> ", nav.Index+1, nav.Total)
}

// Exec runs one command line.
func (c *Console) Exec(ctx context.Context, line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(args[0]), args[1:]

	switch cmd {
	case "open", "upload":
		if len(args) == 0 {
			return errors.New("usage: open <file.pdf>...")
		}
		c.report(c.bench.Upload(ctx, args))
	case "next":
		c.report(c.bench.Next(ctx))
	case "prev":
		c.report(c.bench.Prev(ctx))
	case "edit":
		return c.edit(args)
	case "crop":
		if !c.bench.ActivateCrop() {
			return errors.New("crop tool busy")
		}
		fmt.Fprintln(c.out, "crop armed: down/move/up or select x1 y1 x2 y2")
	case "down", "move", "up":
		return c.pointer(ctx, cmd, args)
	case "select":
		return c.selectRegion(ctx, args)
	case "table":
		c.printTable()
	case "status":
		c.printStatus()
	case "snapshot":
		return c.snapshot(args)
	case "export":
		res, err := c.bench.Export(ctx)
		if errors.Is(err, export.ErrNoData) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "exported %d rows to %s\n", res.Rows, res.Location)
	case "jobs":
		return c.jobs(ctx)
	case "help", "?":
		c.help()
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

// report prints the status after a navigation; the failure itself is
// already reflected in the status and the table.
func (c *Console) report(err error) {
	if err != nil {
		c.logger.Debug("console.command.failed", "err", err)
	}
	c.printStatus()
	c.printTable()
}

func (c *Console) edit(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: edit <row> <name|company|duration> [text...]")
	}
	row, err := strconv.Atoi(args[0])
	if err != nil || row < 1 {
		return fmt.Errorf("bad row %q", args[0])
	}
	col, err := table.ParseColumn(args[1])
	if err != nil {
		return err
	}
	return c.bench.EditCell(row-1, col, strings.Join(args[2:], " "))
}

func (c *Console) pointer(ctx context.Context, cmd string, args []string) error {
	x, y, err := point(args)
	if err != nil {
		return err
	}
	switch cmd {
	case "down":
		if !c.bench.PointerDown(x, y) {
			fmt.Fprintln(c.out, "ignored: crop not armed")
		}
	case "move":
		c.bench.PointerMove(x, y)
	case "up":
		return c.release(ctx, x, y)
	}
	return nil
}

func (c *Console) selectRegion(ctx context.Context, args []string) error {
	if len(args) != 4 {
		return errors.New("usage: select x1 y1 x2 y2")
	}
	x1, y1, err := point(args[:2])
	if err != nil {
		return err
	}
	x2, y2, err := point(args[2:])
	if err != nil {
		return err
	}
	c.bench.ActivateCrop()
	if !c.bench.PointerDown(x1, y1) {
		return errors.New("crop tool busy")
	}
	c.bench.PointerMove(x2, y2)
	return c.release(ctx, x2, y2)
}

func (c *Console) release(ctx context.Context, x, y int) error {
	out, err := c.bench.PointerUp(ctx, x, y)
	switch out {
	case selector.Ignored:
		fmt.Fprintln(c.out, "ignored: no selection in progress")
	case selector.Discarded:
		fmt.Fprintln(c.out, "selection too small, discarded")
	default:
		c.printStatus()
		c.printTable()
	}
	if err != nil {
		c.logger.Debug("console.crop.failed", "err", err)
	}
	return nil
}

func point(args []string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, errors.New("want x y")
	}
	x, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad x %q", args[0])
	}
	y, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad y %q", args[1])
	}
	return x, y, nil
}

func (c *Console) printStatus() {
	fmt.Fprintf(c.out, "status: %s\n", c.bench.Status())
	nav := c.bench.Nav()
	if nav.Total > 0 {
		fmt.Fprintf(c.out, "document %d of %d (prev:%s next:%s)\n", nav.Index+1, nav.Total, onOff(nav.CanPrev), onOff(nav.CanNext))
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (c *Console) printTable() {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "#\t%s\n", strings.Join(constants.Columns, "\t"))
	for _, r := range c.bench.Rows() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Index+1, r.Cells[table.ColName], r.Cells[table.ColCompany], r.Cells[table.ColDuration])
	}
	_ = tw.Flush()
}

func (c *Console) snapshot(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: snapshot <out.png>")
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := c.bench.Snapshot(f); err != nil {
		_ = f.Close()
		_ = os.Remove(args[0])
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "wrote %s\n", args[0])
	return nil
}

func (c *Console) jobs(ctx context.Context) error {
	jobs, err := c.bench.Jobs(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tMETHOD\tSTATUS\tSTARTED\tDETAIL")
	for _, j := range jobs {
		detail := j.ErrorMessage
		if detail == "" {
			detail = truncate(j.Text, 40)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", j.DocumentIndex+1, j.Method, j.Status, j.StartedAt.Local().Format(time.TimeOnly), detail)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func (c *Console) help() {
	fmt.Fprint(c.out, `commands:
  open <file.pdf>...          load a batch and show the first document
  next | prev                 save table edits and move
  edit <row> <column> <text>  edit a table cell (columns: name, company, duration)
  crop                        arm the crop tool for one selection
  down|move|up <x> <y>        drive the selection with page pixel coordinates
  select <x1> <y1> <x2> <y2>  crop in one step
  table | status              show the table or the status area
  snapshot <out.png>          write the page with its overlay
  export                      write Internship_Data.xlsx
  jobs                        list extraction attempts
  quit
`)
}
