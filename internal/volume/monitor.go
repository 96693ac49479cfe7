package volume

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"hopper/internal/logging"
)

// Event describes a labelled volume appearing or disappearing.
type Event struct {
	Action string // "add" or "remove"
	Device string // e.g. /dev/sdb1
	Label  string
}

// Watcher listens for udev netlink block events and reports volume
// attach/detach transitions, so the configured destination label can be
// watched for without polling lsblk.
type Watcher struct {
	logger *slog.Logger

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewWatcher creates a volume watcher logging through the given logger.
func NewWatcher(logger *slog.Logger) *Watcher {
	return &Watcher{logger: logging.NewComponentLogger(logger, "volume-watch")}
}

// Start connects to the udev netlink socket and forwards matched events to
// the events channel until ctx is done or Stop is called. A connection
// failure is returned to the caller; hotplug watching is optional.
func (w *Watcher) Start(ctx context.Context, events chan<- Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return err
	}

	w.conn = conn
	w.quit = make(chan struct{})
	w.running = true

	quit := w.quit
	go w.loop(ctx, quit, events)

	w.logger.Info("volume watcher started")
	return nil
}

// Stop shuts down the watcher and closes the netlink connection.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.quit != nil {
		close(w.quit)
		w.quit = nil
	}
	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}
	w.running = false
	w.logger.Info("volume watcher stopped")
}

func (w *Watcher) loop(ctx context.Context, quit <-chan struct{}, events chan<- Event) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, blockDeviceMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			event, ok := volumeEvent(uevent)
			if !ok {
				continue
			}
			select {
			case events <- event:
			case <-ctx.Done():
				close(monitorQuit)
				return
			}
		case err := <-errs:
			w.logger.Warn("netlink monitor error", logging.Error(err))
		}
	}
}

func blockDeviceMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "block",
		},
	})
	return rules
}

// volumeEvent converts a uevent into a volume Event. Only events carrying a
// filesystem label are interesting; kernel partition-table chatter is not.
func volumeEvent(uevent netlink.UEvent) (Event, bool) {
	label := strings.TrimSpace(uevent.Env["ID_FS_LABEL"])
	if label == "" {
		return Event{}, false
	}
	device := uevent.Env["DEVNAME"]
	if device == "" {
		parts := strings.Split(uevent.Env["DEVPATH"], "/")
		if len(parts) > 0 {
			device = "/dev/" + parts[len(parts)-1]
		}
	}
	return Event{
		Action: string(uevent.Action),
		Device: device,
		Label:  label,
	}, true
}
