// Package interactive provides the interactive command-line interface
// for the oscstrip simulator.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/oscstrip/oscstrip-go/internal/config"
	"github.com/oscstrip/oscstrip-go/pkg/examples"
	"github.com/oscstrip/oscstrip-go/pkg/feedback"
	"github.com/oscstrip/oscstrip-go/pkg/model"
	"github.com/oscstrip/oscstrip-go/pkg/persistence"
	"github.com/oscstrip/oscstrip-go/pkg/surface"
	"github.com/oscstrip/oscstrip-go/pkg/transport"
)

// Simulation is the background meter and automation simulation.
type Simulation interface {
	Start()
	Stop()
	Running() bool
}

// Config wires the console to the running simulator.
type Config struct {
	Mixer      *examples.Mixer
	Surface    *surface.Surface
	Dispatcher *transport.Dispatcher // optional, for stats
	Settings   *config.Config        // optional, for the config command
	Simulation Simulation            // optional

	// Store is the default file for save and load.
	Store *persistence.SessionStore

	// Bank is the first channel shown on slot 1 (default 1).
	Bank int
}

// Console handles interactive mode for oscstrip.
type Console struct {
	cfg   Config
	rl    *readline.Instance
	out   io.Writer
	slots int

	// bank is the first channel shown on slot 1.
	bank int
}

// New creates a console reading from the terminal.
func New(cfg Config) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "oscstrip> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := newConsole(cfg, rl.Stdout())
	c.rl = rl
	return c, nil
}

func newConsole(cfg Config, out io.Writer) *Console {
	slots := config.DefaultSlots
	if cfg.Settings != nil && cfg.Settings.Surface.Slots > 0 {
		slots = cfg.Settings.Surface.Slots
	}
	bank := 1
	if cfg.Bank > 1 {
		bank = cfg.Bank
	}
	return &Console{cfg: cfg, out: out, slots: slots, bank: bank}
}

// Bank returns the first channel of the bank currently shown.
func (c *Console) Bank() int {
	return c.bank
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use this for log output to avoid interfering with the command line.
func (c *Console) Stdout() io.Writer {
	return c.out
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if !c.Execute(line) {
			cancel()
			return
		}
	}
}

// Execute runs one command line. It returns false when the user asked to quit.
func (c *Console) Execute(line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "strips", "ls":
		c.cmdStrips()
	case "slots":
		c.cmdSlots()
	case "bank", "b":
		c.cmdBank(args)
	case "next":
		c.showBank(c.bank+c.slots, false)
	case "prev":
		c.showBank(max(c.bank-c.slots, 1), false)
	case "refresh":
		c.showBank(c.bank, true)
	case "assign":
		c.cmdAssign(args)
	case "release":
		c.cmdRelease(args)

	case "mute", "solo", "iso", "safe", "rec", "recsafe":
		c.cmdToggle(cmd, args)
	case "gain":
		c.cmdLevel(args, model.ControlGain)
	case "trim":
		c.cmdLevel(args, model.ControlTrim)
	case "pan":
		c.cmdPan(args)
	case "monitor":
		c.cmdMonitor(args)
	case "auto":
		c.cmdAutomation(args)
	case "meter":
		c.cmdMeter(args)
	case "name":
		c.cmdName(args)
	case "hide":
		c.cmdHide(args)
	case "select", "sel":
		c.cmdSelect(args)

	case "add":
		c.cmdAdd(args)
	case "remove", "rm":
		c.cmdRemove(args)

	case "expand":
		c.cmdExpand(args)
	case "link":
		c.cmdLink(args)

	case "save":
		c.cmdSave(args)
	case "load":
		c.cmdLoad(args)

	case "start", "sim-start":
		c.cmdSim(true)
	case "stop", "sim-stop":
		c.cmdSim(false)
	case "status":
		c.cmdStatus()
	case "config":
		c.cmdConfig()

	case "quit", "exit", "q":
		fmt.Fprintln(c.out, "Exiting...")
		return false

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
oscstrip Commands:
  Mixer:
    strips                 - List channels
    mute|solo|rec <ch> [on|off]
    iso|safe|recsafe <ch> [on|off]
    gain <ch> <dB|-inf>    - Set fader gain
    trim <ch> <dB>         - Set input trim
    pan <ch> <0..1>        - Set pan position
    monitor <ch> <mode>    - auto, input, disk, cue
    auto <ch> <mode>       - off, play, write, touch, latch
    meter <ch> <dB>        - Set peak level
    name <ch> <text>       - Rename a channel
    hide <ch> [on|off]     - Hide or show a channel
    select <ch|0>          - Select a channel (0 clears)
    add <name> [bus]       - Add a track (or bus)
    remove <ch>            - Destroy a channel

  Surface:
    slots                  - Show slot states
    bank <n> | next | prev - Show bank n
    refresh                - Resend the current bank
    assign <slot> <ch|0>   - Show a channel on one slot
    release <slot>         - Close a slot
    expand <slot|0>        - Expand a slot (0 clears)
    link <n>               - Set missing linked surfaces

  Simulation:
    start | stop           - Start or stop meter and automation simulation
    status                 - Show transport and simulation status
    save [file]            - Save channels and bank
    load [file]            - Restore a saved session
    config                 - Show the effective configuration

  General:
    help                   - Show this help
    quit                   - Exit`)
}

func (c *Console) errorf(format string, args ...any) {
	fmt.Fprintf(c.out, "Error: "+format+"\n", args...)
}

func (c *Console) ok() {
	fmt.Fprintln(c.out, "OK")
}

// channel parses a 1-based channel number.
func (c *Console) channel(arg string) (*model.Channel, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		c.errorf("invalid channel: %s", arg)
		return nil, false
	}
	ch, err := c.cfg.Mixer.Channel(n)
	if err != nil {
		c.errorf("%v", err)
		return nil, false
	}
	return ch, true
}

func parseSlot(arg string) (uint32, error) {
	n, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid slot: %s", arg)
	}
	return uint32(n), nil
}

func parseOnOff(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "1", "true", "yes":
		return true, nil
	case "off", "0", "false", "no":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %s", arg)
	}
}

func formatDB(db float64) string {
	if math.IsInf(db, -1) || db < feedback.GainFloorDB {
		return "-inf"
	}
	return strconv.FormatFloat(db, 'f', 1, 64)
}

func (c *Console) cmdStrips() {
	chs := c.cfg.Mixer.Channels()
	if len(chs) == 0 {
		fmt.Fprintln(c.out, "No channels")
		return
	}
	fmt.Fprintf(c.out, "%-4s %-16s %-6s %-5s %-5s %-8s %-6s\n", "#", "Name", "Flags", "Mute", "Solo", "Gain", "Auto")
	for i, ch := range chs {
		flags := ""
		if ch.Selected() {
			flags += "S"
		}
		if ch.Hidden() {
			flags += "H"
		}
		if ch.RecEnable() != nil && ch.RecEnable().Value() >= 0.5 {
			flags += "R"
		}
		fmt.Fprintf(c.out, "%-4d %-16s %-6s %-5t %-5t %-8s %-6s\n",
			i+1, ch.Name(), flags,
			ch.Mute().Value() >= 0.5, ch.Solo().Value() >= 0.5,
			formatDB(model.CoefficientToDB(ch.Gain().Value())),
			ch.Gain().AutomationState())
	}
}

func (c *Console) cmdSlots() {
	slots := c.cfg.Surface.Slots()
	if len(slots) == 0 {
		fmt.Fprintln(c.out, "No open slots")
		return
	}
	fmt.Fprintf(c.out, "Bank starts at channel %d\n", c.bank)
	for _, slot := range slots {
		obs, err := c.cfg.Surface.Observer(slot)
		if err != nil {
			continue
		}
		name := "-"
		if strip := obs.Strip(); strip != nil {
			name = strip.Name()
		}
		fmt.Fprintf(c.out, "  [%d] %-9s %-16s subs=%d\n", slot, obs.State(), name, obs.Subscriptions())
	}
}

func (c *Console) showBank(first int, force bool) {
	if err := c.cfg.Surface.AssignAll(c.cfg.Mixer.Bank(first, c.slots), force); err != nil {
		c.errorf("%v", err)
		return
	}
	c.bank = first
	fmt.Fprintf(c.out, "Showing channels %d-%d\n", first, first+c.slots-1)
}

func (c *Console) cmdBank(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(c.out, "Bank %d (channels %d-%d)\n", (c.bank-1)/c.slots+1, c.bank, c.bank+c.slots-1)
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		c.errorf("invalid bank: %s", args[0])
		return
	}
	c.showBank((n-1)*c.slots+1, false)
}

func (c *Console) cmdAssign(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: assign <slot> <ch|0>")
		return
	}
	slot, err := parseSlot(args[0])
	if err != nil {
		c.errorf("%v", err)
		return
	}

	var strip model.Strip
	if args[1] != "0" {
		ch, ok := c.channel(args[1])
		if !ok {
			return
		}
		strip = ch
	}
	if err := c.cfg.Surface.Assign(slot, strip, false); err != nil {
		c.errorf("%v", err)
		return
	}
	c.ok()
}

func (c *Console) cmdRelease(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: release <slot>")
		return
	}
	slot, err := parseSlot(args[0])
	if err != nil {
		c.errorf("%v", err)
		return
	}
	if err := c.cfg.Surface.Release(slot); err != nil {
		c.errorf("%v", err)
		return
	}
	c.ok()
}

var toggleControls = map[string]model.ControlID{
	"mute":    model.ControlMute,
	"solo":    model.ControlSolo,
	"iso":     model.ControlSoloIsolate,
	"safe":    model.ControlSoloSafe,
	"rec":     model.ControlRecEnable,
	"recsafe": model.ControlRecSafe,
}

func (c *Console) cmdToggle(cmd string, args []string) {
	if len(args) < 1 {
		fmt.Fprintf(c.out, "Usage: %s <ch> [on|off]\n", cmd)
		return
	}
	ch, ok := c.channel(args[0])
	if !ok {
		return
	}
	p, err := ch.Parameter(toggleControls[cmd])
	if err != nil {
		c.errorf("%s has no %s control", ch.Name(), cmd)
		return
	}

	on := p.Value() < 0.5
	if len(args) > 1 {
		if on, err = parseOnOff(args[1]); err != nil {
			c.errorf("%v", err)
			return
		}
	}
	if on {
		p.Set(1)
	} else {
		p.Set(0)
	}
	fmt.Fprintf(c.out, "%s %s: %t\n", ch.Name(), cmd, on)
}

func (c *Console) cmdLevel(args []string, id model.ControlID) {
	if len(args) < 2 {
		fmt.Fprintf(c.out, "Usage: %s <ch> <dB>\n", id)
		return
	}
	ch, ok := c.channel(args[0])
	if !ok {
		return
	}
	p, err := ch.Parameter(id)
	if err != nil {
		c.errorf("%s has no %s control", ch.Name(), id)
		return
	}

	coeff := 0.0
	if args[1] != "-inf" {
		db, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			c.errorf("invalid level: %s", args[1])
			return
		}
		coeff = model.DBToCoefficient(db)
	}
	p.Set(coeff)
	c.ok()
}

func (c *Console) cmdPan(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: pan <ch> <0..1>")
		return
	}
	ch, ok := c.channel(args[0])
	if !ok {
		return
	}
	p, err := ch.Parameter(model.ControlPan)
	if err != nil {
		c.errorf("%s has no panner", ch.Name())
		return
	}
	v, err := strconv.ParseFloat(args[1], 64)
	if err != nil || v < 0 || v > 1 {
		c.errorf("pan must be between 0 and 1")
		return
	}
	p.Set(v)
	c.ok()
}

var monitorChoices = map[string]model.MonitorChoice{
	"auto":  model.MonitorAuto,
	"input": model.MonitorInput,
	"disk":  model.MonitorDisk,
	"cue":   model.MonitorCue,
}

func (c *Console) cmdMonitor(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: monitor <ch> <auto|input|disk|cue>")
		return
	}
	ch, ok := c.channel(args[0])
	if !ok {
		return
	}
	p, err := ch.Parameter(model.ControlMonitoring)
	if err != nil {
		c.errorf("%s has no monitoring control", ch.Name())
		return
	}
	choice, ok := monitorChoices[strings.ToLower(args[1])]
	if !ok {
		c.errorf("unknown monitoring mode: %s", args[1])
		return
	}
	p.Set(float64(choice))
	c.ok()
}

func parseAutomation(s string) (model.AutomationState, bool) {
	for a := model.AutomationOff; a <= model.AutomationLatch; a++ {
		if strings.EqualFold(a.String(), s) {
			return a, true
		}
	}
	return 0, false
}

func (c *Console) cmdAutomation(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: auto <ch> <off|play|write|touch|latch>")
		return
	}
	ch, ok := c.channel(args[0])
	if !ok {
		return
	}
	state, ok := parseAutomation(args[1])
	if !ok {
		c.errorf("unknown automation mode: %s", args[1])
		return
	}
	ch.GainParameter().SetAutomationState(state)
	c.ok()
}

func (c *Console) cmdMeter(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: meter <ch> <dB>")
		return
	}
	ch, ok := c.channel(args[0])
	if !ok {
		return
	}
	if ch.Meter() == nil {
		c.errorf("%s has no meter", ch.Name())
		return
	}
	db, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		c.errorf("invalid level: %s", args[1])
		return
	}
	ch.Meter().Set(db)
	c.ok()
}

func (c *Console) cmdName(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: name <ch> <text>")
		return
	}
	ch, ok := c.channel(args[0])
	if !ok {
		return
	}
	ch.SetName(strings.Join(args[1:], " "))
	c.ok()
}

func (c *Console) cmdHide(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: hide <ch> [on|off]")
		return
	}
	ch, ok := c.channel(args[0])
	if !ok {
		return
	}
	hidden := !ch.Hidden()
	if len(args) > 1 {
		var err error
		if hidden, err = parseOnOff(args[1]); err != nil {
			c.errorf("%v", err)
			return
		}
	}
	ch.SetHidden(hidden)
	c.ok()
}

func (c *Console) cmdSelect(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: select <ch|0>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		c.errorf("invalid channel: %s", args[0])
		return
	}
	if err := c.cfg.Mixer.Select(n); err != nil {
		c.errorf("%v", err)
		return
	}
	c.ok()
}

func (c *Console) cmdAdd(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: add <name> [bus]")
		return
	}
	opts := []model.ChannelOption{model.WithPan(), model.WithMeter()}
	if len(args) < 2 || args[1] != "bus" {
		opts = append(opts, model.WithTrack(), model.WithTrim(), model.WithSoloIsolate(), model.WithSoloSafe())
	}
	n := c.cfg.Mixer.Add(args[0], opts...)
	fmt.Fprintf(c.out, "Added channel %d\n", n)

	if n >= c.bank && n < c.bank+c.slots {
		c.showBank(c.bank, false)
	}
}

func (c *Console) cmdRemove(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: remove <ch>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		c.errorf("invalid channel: %s", args[0])
		return
	}
	if err := c.cfg.Mixer.Remove(n); err != nil {
		c.errorf("%v", err)
		return
	}
	fmt.Fprintf(c.out, "Removed channel %d\n", n)

	// Channels after n moved down; refill the visible bank.
	c.showBank(c.bank, false)
}

func (c *Console) cmdExpand(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: expand <slot|0>")
		return
	}
	slot, err := parseSlot(args[0])
	if err != nil {
		c.errorf("%v", err)
		return
	}
	c.cfg.Surface.SetExpand(slot)
	c.ok()
}

func (c *Console) cmdLink(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: link <missing-surfaces>")
		return
	}
	n, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		c.errorf("invalid count: %s", args[0])
		return
	}
	c.cfg.Surface.SetLinkReadiness(uint32(n))
	c.ok()
}

func (c *Console) cmdSim(start bool) {
	if c.cfg.Simulation == nil {
		c.errorf("simulation not available")
		return
	}
	if start {
		c.cfg.Simulation.Start()
	} else {
		c.cfg.Simulation.Stop()
	}
}

func (c *Console) cmdStatus() {
	fmt.Fprintf(c.out, "Channels:   %d\n", c.cfg.Mixer.Len())
	fmt.Fprintf(c.out, "Slots:      %d open\n", len(c.cfg.Surface.Slots()))
	fmt.Fprintf(c.out, "Ticks:      %d\n", c.cfg.Surface.Ticks())
	if c.cfg.Simulation != nil {
		fmt.Fprintf(c.out, "Simulation: %t\n", c.cfg.Simulation.Running())
	}
	if c.cfg.Dispatcher != nil {
		st := c.cfg.Dispatcher.Stats()
		fmt.Fprintf(c.out, "Transport:  queued=%d sent=%d dropped=%d failed=%d endpoints=%d\n",
			st.Queued, st.Sent, st.Dropped, st.Failed, c.cfg.Dispatcher.Endpoints())
	}
}

func (c *Console) cmdConfig() {
	if c.cfg.Settings == nil {
		c.errorf("no configuration loaded")
		return
	}
	data, err := c.cfg.Settings.Marshal()
	if err != nil {
		c.errorf("%v", err)
		return
	}
	fmt.Fprint(c.out, string(data))
}

func (c *Console) store(args []string) *persistence.SessionStore {
	if len(args) > 0 {
		return persistence.NewSessionStore(args[0])
	}
	if c.cfg.Store == nil {
		c.errorf("no state file configured, give a path")
	}
	return c.cfg.Store
}

func (c *Console) cmdSave(args []string) {
	store := c.store(args)
	if store == nil {
		return
	}
	state := &persistence.SessionState{
		Bank:     c.bank,
		Expand:   c.cfg.Surface.Expand(),
		Channels: c.cfg.Mixer.Snapshot(),
	}
	if err := store.Save(state); err != nil {
		c.errorf("%v", err)
		return
	}
	fmt.Fprintf(c.out, "Saved %d channels to %s\n", len(state.Channels), store.Path())
}

func (c *Console) cmdLoad(args []string) {
	store := c.store(args)
	if store == nil {
		return
	}
	state, err := store.Load()
	if err != nil {
		c.errorf("%v", err)
		return
	}
	if state == nil {
		c.errorf("no saved session at %s", store.Path())
		return
	}

	c.cfg.Mixer.Restore(state.Channels)
	if state.Expand != 0 {
		c.cfg.Surface.SetExpand(state.Expand)
	}
	c.showBank(max(state.Bank, 1), true)
	fmt.Fprintf(c.out, "Loaded %d channels from %s\n", len(state.Channels), store.Path())
}
