// Package main - ward-tui
// Local terminal front end: runs a ward in-process on the real-time ticker and
// draws a HUD of every subsystem. Useful for feeling out tuning values.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/domain/item"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/config"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/session"
)

const (
	frameInterval = 50 * time.Millisecond
	feedLength    = 12
	playerStep    = 1.0
	barWidth      = 30
)

var (
	styleLabel = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleGood  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleWarn  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleBad   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleDim   = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// feed keeps the most recent notable events for display. It is written from
// the tick thread and read from the render loop.
type feed struct {
	mu    sync.Mutex
	lines []string
}

func (f *feed) tap(ev events.GameEvent) {
	if ev.Type == events.EventTypeTimeTick || ev.Type == events.EventTypeBatteryChanged {
		return
	}
	line := fmt.Sprintf("%6.1fs %-20s %+v", ev.SimTime.Seconds(), ev.Type, ev.Payload)
	f.mu.Lock()
	f.lines = append(f.lines, line)
	if len(f.lines) > feedLength {
		f.lines = f.lines[len(f.lines)-feedLength:]
	}
	f.mu.Unlock()
}

func (f *feed) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

type ui struct {
	screen tcell.Screen
	ward   *session.Session
	feed   *feed
	status string
}

func main() {
	configPath := flag.String("config", "", "YAML config overriding the embedded defaults")
	logPath := flag.String("log", "ward-tui.log", "file receiving engine logs")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Tick.Seed == 0 {
		cfg.Tick.Seed = time.Now().UnixNano()
	}

	logFile, err := os.Create(*logPath)
	if err != nil {
		log.Fatalf("log file: %v", err)
	}
	defer logFile.Close()
	appLogger := logger.NewWithWriter(logFile, slog.LevelDebug)

	ward := session.NewSession(cfg, appLogger)
	f := &feed{}
	ward.Bus.SubscribeAll(f.tap)

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("screen init: %v", err)
	}
	defer screen.Fini()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ward.Engine.Start(ctx)
	defer ward.Engine.Stop()

	u := &ui{screen: screen, ward: ward, feed: f, status: "ready"}
	u.loop()
}

func (u *ui) loop() {
	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	frame := time.NewTicker(frameInterval)
	defer frame.Stop()

	for {
		select {
		case ev := <-eventChan:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !u.handleKey(ev) {
					return
				}
			case *tcell.EventResize:
				u.screen.Sync()
			}
		case <-frame.C:
			u.draw()
		}
	}
}

// handleKey applies one key press. It returns false when the user quits.
func (u *ui) handleKey(ev *tcell.EventKey) bool {
	eng := u.ward.Engine
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		u.move(0, -playerStep)
		return true
	case tcell.KeyDown:
		u.move(0, playerStep)
		return true
	case tcell.KeyLeft:
		u.move(-playerStep, 0)
		return true
	case tcell.KeyRight:
		u.move(playerStep, 0)
		return true
	case tcell.KeyRune:
	default:
		return true
	}

	var err error
	switch ev.Rune() {
	case 'q':
		return false
	case 'g':
		err = eng.ActivateGenerator()
		u.report("generator", err)
	case 's':
		err = eng.UseSwitch()
		u.report("switch", err)
	case 'e':
		eng.EquipFlashlight()
		u.report("equip", nil)
	case 'u':
		eng.UnequipFlashlight()
		u.report("unequip", nil)
	case 'f':
		err = eng.ToggleFlashlight()
		u.report("flashlight", err)
	case 'p':
		u.pickupAndUse(item.ItemSanityPills)
	case 'b':
		u.pickupAndUse(item.ItemBattery)
	case 'x':
		eng.SetSanity(0)
		u.report("debug sanity 0", nil)
	case 'r':
		eng.ResetGenerator()
		u.report("debug generator reset", nil)
	}
	return true
}

// pickupAndUse grants one item and consumes it right away.
func (u *ui) pickupAndUse(t item.ItemType) {
	eng := u.ward.Engine
	if err := eng.GivePickup(t); err != nil {
		u.report("pickup "+string(t), err)
		return
	}
	u.report("use "+string(t), eng.UsePickup(t))
}

func (u *ui) move(dx, dy float64) {
	s := u.ward
	s.Engine.Do(func() {
		pos := r3.Add(s.Player.CurrentPlayerPosition(), r3.Vec{X: dx, Y: dy})
		if s.Floor.Contains(pos) {
			s.Player.SetPosition(pos)
		}
	})
}

func (u *ui) report(action string, err error) {
	if err != nil {
		u.status = fmt.Sprintf("%s: %v", action, err)
		return
	}
	u.status = action + ": ok"
}

func (u *ui) draw() {
	s := u.ward
	snap := s.Engine.Snapshot()
	var player, monster r3.Vec
	s.Engine.Do(func() {
		player = s.Player.CurrentPlayerPosition()
		monster = s.Monster.Position()
	})

	u.screen.Clear()
	y := 0
	u.text(0, y, styleLabel, fmt.Sprintf("PABELLON NOCTURNO  t=%.1fs  ticks=%d", snap.SimTime.Seconds(), snap.Ticks))
	y += 2

	sanityStyle := styleGood
	switch {
	case snap.Sanity == 0:
		sanityStyle = styleBad
	case snap.Sanity <= snap.Threshold:
		sanityStyle = styleWarn
	}
	u.bar(0, y, "Sanity ", float64(snap.Sanity), float64(snap.SanityMax), sanityStyle)
	u.text(barWidth+20, y, styleDim, fmt.Sprintf("threshold %d decaying=%v", snap.Threshold, snap.Decaying))
	y++

	batteryStyle := styleGood
	if snap.Battery == 0 {
		batteryStyle = styleBad
	}
	u.bar(0, y, "Battery", snap.Battery, snap.BatteryMax, batteryStyle)
	u.text(barWidth+20, y, styleDim, fmt.Sprintf("equipped=%v on=%v", snap.Equipped, snap.SwitchedOn))
	y += 2

	lights, lightStyle := "OFF", styleBad
	if snap.LightsOn {
		lights, lightStyle = "ON", styleGood
	}
	u.text(0, y, styleLabel, "Lights:")
	u.text(12, y, lightStyle, lights)
	u.text(20, y, styleDim, fmt.Sprintf("override=%v switch usable=%v", snap.OverrideActive, snap.SwitchUsable))
	y++

	u.text(0, y, styleLabel, "Generator:")
	genStyle := styleDim
	if snap.GeneratorReady {
		genStyle = styleGood
	}
	u.text(12, y, genStyle, snap.GeneratorPhase)
	y++

	u.text(0, y, styleLabel, "Antagonist:")
	antStyle := styleDim
	if snap.AntagonistOn {
		antStyle = styleBad
	}
	u.text(12, y, antStyle, snap.AntagonistState)
	u.text(26, y, styleDim, fmt.Sprintf("at (%.1f, %.1f) dist %.1f", monster.X, monster.Y, r3.Norm(r3.Sub(monster, player))))
	y++

	u.text(0, y, styleLabel, "Patients:")
	u.text(12, y, styleDim, fmt.Sprintf("%d frozen=%v", snap.Patients, snap.CrowdFrozen))
	y++

	u.text(0, y, styleLabel, "Player:")
	u.text(12, y, styleDim, fmt.Sprintf("(%.1f, %.1f) inventory %v", player.X, player.Y, snap.Inventory))
	y += 2

	u.text(0, y, styleLabel, "Recent events")
	y++
	for _, line := range u.feed.snapshot() {
		u.text(0, y, styleDim, line)
		y++
	}
	y++

	u.text(0, y, styleWarn, u.status)
	y++
	u.text(0, y, styleLabel, strings.Join([]string{
		"arrows move", "g generator", "s switch", "e/u equip", "f flashlight",
		"p pills", "b battery", "x zero sanity", "r reset gen", "q quit",
	}, "  "))

	u.screen.Show()
}

func (u *ui) bar(x, y int, label string, value, max float64, style tcell.Style) {
	u.text(x, y, styleLabel, label)
	filled := 0
	if max > 0 {
		filled = int(value / max * barWidth)
	}
	for i := 0; i < barWidth; i++ {
		r, st := '█', style
		if i >= filled {
			r, st = '░', styleDim
		}
		u.screen.SetContent(x+9+i, y, r, nil, st)
	}
	u.text(x+10+barWidth, y, style, fmt.Sprintf("%.0f/%.0f", value, max))
}

func (u *ui) text(x, y int, style tcell.Style, s string) {
	for _, r := range s {
		u.screen.SetContent(x, y, r, nil, style)
		x++
	}
}
