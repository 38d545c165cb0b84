// Package notify предоставляет системные уведомления.
package notify

import (
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"

	"voxnote/internal/i18n"
)

const appName = "Voxnote"

// send заменяется в тестах.
var send = func(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Notifier отправляет системные уведомления.
type Notifier struct {
	mu      sync.Mutex
	enabled bool
	wg      sync.WaitGroup
}

// New создаёт новый Notifier.
func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled}
}

// SetEnabled включает/выключает уведомления.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	n.enabled = enabled
	n.mu.Unlock()
}

// Enabled сообщает, включены ли уведомления.
func (n *Notifier) Enabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled
}

// Ready сообщает, что распознавание запущено.
func (n *Notifier) Ready(sensor string) {
	n.notify(i18n.T("notify_ready"), sensor)
}

// SensorDetached сообщает об отключении сенсора.
func (n *Notifier) SensorDetached(sensor string) {
	n.notify(i18n.T("notify_sensor_detached"), sensor)
}

// Error показывает уведомление об ошибке.
func (n *Notifier) Error(msg string) {
	n.notify("", msg)
}

// Conflict сообщает, что сенсор занят другим приложением.
// Показывается всегда, даже при выключенных уведомлениях.
func (n *Notifier) Conflict(sensor string, err error) {
	msg := i18n.T("notify_conflict_hint")
	if err != nil {
		msg = fmt.Sprintf("%v\n%s", err, msg)
	}
	n.deliver(fmt.Sprintf(i18n.T("notify_conflict"), sensor), msg)
}

func (n *Notifier) notify(title, message string) {
	if !n.Enabled() {
		return
	}
	n.deliver(title, message)
}

// deliver отправляет уведомление в отдельной горутине: вызывающий
// может быть циклом сессии, а Notify на D-Bus или Windows toast медленный.
func (n *Notifier) deliver(title, message string) {
	if title != "" {
		title = appName + ": " + title
	} else {
		title = appName
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		// Игнорируем ошибки уведомлений - они не критичны
		_ = send(title, message)
	}()
}

// Wait ждёт отправки всех уведомлений.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
