package ui

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/beeep"
	"github.com/ncruces/zenity"
)

// NotificationManager handles showing desktop notifications.
type NotificationManager struct {
	enabled  atomic.Bool
	appName  string
	iconPath string
	notify   func(title, message, icon string) error
}

// NewNotificationManager creates a new notification manager. iconPath may be empty.
func NewNotificationManager(useNotifications bool, appName, iconPath string) *NotificationManager {
	n := &NotificationManager{
		appName:  appName,
		iconPath: iconPath,
		notify: func(title, message, icon string) error {
			return beeep.Notify(title, message, icon)
		},
	}
	n.enabled.Store(useNotifications)
	return n
}

// SetEnabled turns notifications on or off.
func (n *NotificationManager) SetEnabled(enabled bool) {
	n.enabled.Store(enabled)
}

// ShowNotification displays a desktop notification if enabled.
func (n *NotificationManager) ShowNotification(title, message string) {
	if !n.enabled.Load() {
		log.Printf("Notification suppressed (disabled): %s - %s", title, message)
		return
	}
	if title == "" {
		title = n.appName
	}
	if err := n.notify(title, message, n.iconPath); err != nil {
		log.Printf("Error showing beeep notification: %v", err)
		return
	}
	log.Println("Beeep notification sent successfully.")
}

var (
	globalMu                  sync.RWMutex
	globalNotificationManager *NotificationManager
)

// InitGlobalNotifications initializes the global notification manager.
func InitGlobalNotifications(useNotifications bool, appName, iconPath string) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalNotificationManager = NewNotificationManager(useNotifications, appName, iconPath)
}

// SetNotificationsEnabled toggles the global manager after a config reload.
func SetNotificationsEnabled(enabled bool) {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalNotificationManager != nil {
		globalNotificationManager.SetEnabled(enabled)
	}
}

// ShowNotification shows a notification through the global manager.
func ShowNotification(title, message string) {
	globalMu.RLock()
	n := globalNotificationManager
	globalMu.RUnlock()
	if n == nil {
		log.Printf("Notification not shown (manager not initialized): %s - %s", title, message)
		return
	}
	n.ShowNotification(title, message)
}

// ShowFatal logs message and shows it in a blocking error dialog. Used for startup
// failures right before the process exits.
func ShowFatal(title, message string) {
	log.Printf("FATAL: %s: %s", title, message)
	if err := zenity.Error(message, zenity.Title(title), zenity.ErrorIcon); err != nil {
		log.Printf("Failed to show error dialog: %v", err)
	}
}
