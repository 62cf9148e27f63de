package notifysvc

import (
	"sync"

	"github.com/trezcool/campus/core"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// LogNotifier forwards notifications to a logger.
type LogNotifier struct {
	logger core.Logger
}

var _ core.Notifier = LogNotifier{}

func NewLogNotifier(logger core.Logger) LogNotifier {
	return LogNotifier{logger: logger}
}

func (n LogNotifier) Success(msg string) { n.logger.Info("notify success: " + msg) }
func (n LogNotifier) Error(msg string)   { n.logger.Warn("notify error: " + msg) }
func (n LogNotifier) Info(msg string)    { n.logger.Info("notify info: " + msg) }

// Flash queues the latest notifications until someone drains them.
type Flash struct {
	mu    sync.Mutex
	limit int
	queue []Notification
}

var _ core.Notifier = (*Flash)(nil)

// NewFlash keeps at most limit notifications, dropping the oldest; limit <= 0 keeps 20.
func NewFlash(limit int) *Flash {
	if limit <= 0 {
		limit = 20
	}
	return &Flash{limit: limit}
}

func (f *Flash) push(lvl Level, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, Notification{Level: lvl, Message: msg})
	if over := len(f.queue) - f.limit; over > 0 {
		f.queue = append([]Notification(nil), f.queue[over:]...)
	}
}

func (f *Flash) Success(msg string) { f.push(LevelSuccess, msg) }
func (f *Flash) Error(msg string)   { f.push(LevelError, msg) }
func (f *Flash) Info(msg string)    { f.push(LevelInfo, msg) }

// Drain returns the queued notifications, oldest first, and empties the queue.
func (f *Flash) Drain() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.queue
	f.queue = nil
	return out
}

// Recorder keeps every notification; handy in tests.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

var _ core.Notifier = (*Recorder)(nil)

func (r *Recorder) add(lvl Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, Notification{Level: lvl, Message: msg})
}

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }
func (r *Recorder) Info(msg string)    { r.add(LevelInfo, msg) }

func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.all...)
}

// Last returns the zero Notification when nothing was recorded.
func (r *Recorder) Last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Notification{}
	}
	return r.all[len(r.all)-1]
}

// Multi fans every notification out to each sink in order.
type Multi []core.Notifier

var _ core.Notifier = Multi(nil)

func (m Multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

func (m Multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}

func (m Multi) Info(msg string) {
	for _, n := range m {
		n.Info(msg)
	}
}
