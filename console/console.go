// Package console provides an interactive terminal debugger for the
// emulator. It shows registers, flags, a disassembly window around EIP,
// and a status log, and supports single-stepping and free-running the
// program.
package console

import (
	"fmt"
	"io"

	"github.com/jroimartin/gocui"

	"github.com/sarchlab/i386sim/emu"
	"github.com/sarchlab/i386sim/insts"
)

const (
	registersView = "registers"
	disasmView    = "disassembly"
	statusView    = "status"

	// runBatchSize is the number of instructions executed per screen
	// refresh while free-running.
	runBatchSize = 1024
)

// Debugger drives an emulator from an interactive gocui session.
type Debugger struct {
	emulator *emu.Emulator
	g        *gocui.Gui

	statusOut chan string
	running   bool
	halted    bool
}

// NewDebugger creates a debugger around the given emulator.
func NewDebugger(emulator *emu.Emulator) *Debugger {
	return &Debugger{
		emulator:  emulator,
		statusOut: make(chan string, 16),
	}
}

// Run opens the terminal UI and blocks until the user quits.
func (d *Debugger) Run() error {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return fmt.Errorf("cannot create gui: %w", err)
	}
	defer g.Close()
	d.g = g

	g.SetManagerFunc(d.layout)

	if err := d.bindKeys(g); err != nil {
		return err
	}

	go d.drainStatus()

	d.logStatus("ready, s: step, r: run, q: quit")
	g.Update(func(g *gocui.Gui) error {
		return d.refresh(g)
	})

	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}

func (d *Debugger) bindKeys(g *gocui.Gui) error {
	bindings := []struct {
		key     interface{}
		handler func(*gocui.Gui, *gocui.View) error
	}{
		{'s', d.step},
		{'r', d.run},
		{'q', quit},
		{gocui.KeyCtrlC, quit},
	}
	for _, b := range bindings {
		if err := g.SetKeybinding("", b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}
	return nil
}

// drainStatus forwards log lines to the status view. gocui only allows
// view writes from inside Update.
func (d *Debugger) drainStatus() {
	for s := range d.statusOut {
		line := s
		d.g.Update(func(g *gocui.Gui) error {
			v, err := g.View(statusView)
			if err != nil {
				return err
			}
			fmt.Fprintf(v, "%s\n", line)
			return nil
		})
	}
}

func (d *Debugger) logStatus(format string, args ...interface{}) {
	d.statusOut <- fmt.Sprintf(format, args...)
}

func (d *Debugger) step(g *gocui.Gui, v *gocui.View) error {
	if d.halted {
		return nil
	}

	result := d.emulator.Step()
	if result.Err != nil {
		d.halted = true
		d.logStatus("error: %v", result.Err)
	} else if result.Halted {
		d.halted = true
		d.logStatus("halted after %d instructions",
			d.emulator.InstructionCount())
	}
	return d.refresh(g)
}

func (d *Debugger) run(g *gocui.Gui, v *gocui.View) error {
	if d.halted || d.running {
		return nil
	}
	d.running = true
	d.logStatus("running")

	go func() {
		for {
			for i := 0; i < runBatchSize; i++ {
				result := d.emulator.Step()
				if result.Err != nil {
					d.halted = true
					d.logStatus("error: %v", result.Err)
					break
				}
				if result.Halted {
					d.halted = true
					d.logStatus("halted after %d instructions",
						d.emulator.InstructionCount())
					break
				}
			}

			d.g.Update(func(g *gocui.Gui) error {
				return d.refresh(g)
			})

			if d.halted {
				d.running = false
				return
			}
		}
	}()
	return nil
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}

func (d *Debugger) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()

	if v, err := g.SetView(registersView, 0, 0, 29, maxY-8); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Registers"
	}

	if v, err := g.SetView(disasmView, 30, 0, maxX-1, maxY-8); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Disassembly"
	}

	if v, err := g.SetView(statusView, 0, maxY-7, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Status"
		v.Autoscroll = true
	}

	return nil
}

func (d *Debugger) refresh(g *gocui.Gui) error {
	regView, err := g.View(registersView)
	if err != nil {
		return err
	}
	regView.Clear()
	d.dumpRegisters(regView)

	disView, err := g.View(disasmView)
	if err != nil {
		return err
	}
	disView.Clear()
	d.dumpDisassembly(disView, 16)

	return nil
}

func (d *Debugger) dumpRegisters(w io.Writer) {
	regFile := d.emulator.RegFile()
	for reg := insts.EAX; reg < insts.RegCount; reg++ {
		fmt.Fprintf(w, " %-3s = 0x%08X\n",
			reg.String(), regFile.ReadReg(reg))
	}
	fmt.Fprintf(w, " eip = 0x%08X\n", regFile.EIP)
	fmt.Fprintf(w, " eflags = %s\n", flagString(regFile.EFLAGS))
}

func flagString(eflags uint32) string {
	flags := []struct {
		mask uint32
		name byte
	}{
		{emu.FlagCarry, 'C'},
		{emu.FlagZero, 'Z'},
		{emu.FlagSign, 'S'},
		{emu.FlagOverflow, 'O'},
	}
	out := make([]byte, 0, len(flags))
	for _, f := range flags {
		if eflags&f.mask != 0 {
			out = append(out, f.name)
		} else {
			out = append(out, '-')
		}
	}
	return string(out)
}

func (d *Debugger) dumpDisassembly(w io.Writer, lines int) {
	memory := d.emulator.Memory()
	addr := d.emulator.RegFile().EIP
	for i := 0; i < lines; i++ {
		if addr >= memory.Size() {
			return
		}
		text, length := insts.Disassemble(memory, addr)
		marker := "  "
		if i == 0 {
			marker = "=>"
		}
		fmt.Fprintf(w, " %s 0x%08X  %s\n", marker, addr, text)
		addr += length
	}
}
