package runner

import (
	"bytes"
	"context"
	"log/slog"
	"os"

	"github.com/dimiro1/banner"
)

type State int

const (
	StateNew State = iota
	StateStarting
	StateRunning
	StateDraining
	StateStopped
)

type Runner interface {
	Run(ctx context.Context) error
	Stop() error
	State() State
}

// Hooks run around the session lifetime. OnStop runs after the drain,
// whether or not it finished in time.
type Hooks struct {
	OnStart func()
	OnStop  func()
	Logger  *slog.Logger
}

// Drainer waits for in-flight work to settle before shutdown.
type Drainer interface {
	Drain() error
}

// DrainFunc adapts a function to Drainer.
type DrainFunc func() error

func (f DrainFunc) Drain() error { return f() }

// Drainers drains each non-nil drainer in order and returns the first error.
func Drainers(ds ...Drainer) Drainer {
	return DrainFunc(func() error {
		var first error
		for _, d := range ds {
			if d == nil {
				continue
			}
			if err := d.Drain(); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}

var Version = "dev"

// Quiet suppresses the startup banner.
var Quiet bool

func PrintBanner() {
	if Quiet {
		return
	}
	tpl := "{{ .Title \"INTERVUE\" \"\" 0 }}\nSession core " + Version + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}
