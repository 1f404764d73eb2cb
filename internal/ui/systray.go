package ui

import (
	"fmt"
	"log"

	"github.com/getlantern/systray"

	"github.com/TanaroSch/fast-forward/internal/intent"
)

// trayItem is one clickable tray menu entry and the intent it sends.
type trayItem struct {
	title   string
	tooltip string
	intent  intent.Intent
}

// trayMenu lists the menu in display order. A nil intent marks a separator.
var trayMenu = []trayItem{
	{"Settings", "Open the configuration file", intent.OpenSettings{}},
	{"About", "Open the project page", intent.OpenAbout{}},
	{},
	{"Quit", "Exit Fast Forward", intent.Quit{}},
}

// Tray is the menu bar icon. Every click becomes an intent on the command bus.
type Tray struct {
	version string
	icon    []byte
	sink    intent.Sink
	onReady func()
}

// NewTray creates a tray whose clicks are sent to sink. onReady runs once the
// tray is up and may be nil.
func NewTray(version string, icon []byte, sink intent.Sink, onReady func()) *Tray {
	return &Tray{version: version, icon: icon, sink: sink, onReady: onReady}
}

// Run shows the tray and blocks until Quit is called. It must run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.ready, t.exit)
}

// Quit removes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) ready() {
	title := fmt.Sprintf("Fast Forward %s", t.version)
	systray.SetTooltip(title)
	if len(t.icon) > 0 {
		systray.SetTemplateIcon(t.icon, t.icon)
	} else {
		log.Println("Warning: No embedded icon data to set for systray.")
		systray.SetTitle("FF")
	}

	miVersion := systray.AddMenuItem(fmt.Sprintf("Version: %s", t.version), title)
	miVersion.Disable()
	systray.AddSeparator()

	for _, item := range trayMenu {
		if item.intent == nil {
			systray.AddSeparator()
			continue
		}
		mi := systray.AddMenuItem(item.title, item.tooltip)
		go t.forward(item, mi.ClickedCh)
	}

	log.Println("Systray ready and menu configured.")
	if t.onReady != nil {
		t.onReady()
	}
}

// forward turns clicks into intents until the menu item is gone.
func (t *Tray) forward(item trayItem, clicked <-chan struct{}) {
	for range clicked {
		t.click(item)
	}
}

func (t *Tray) click(item trayItem) {
	log.Printf("%s menu item clicked.", item.title)
	if !t.sink(item.intent) {
		log.Printf("Tray: command bus closed, dropped %T", item.intent)
	}
}

func (t *Tray) exit() {
	log.Println("Systray exiting.")
}
