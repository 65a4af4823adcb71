package testing

import (
	"fmt"

	"github.com/go-drift/sprig/pkg/core"
)

// Hook names a state lifecycle hook.
type Hook string

const (
	HookAppear    Hook = "appear"
	HookUpdate    Hook = "update"
	HookDisappear Hook = "disappear"
)

// LifecycleEvent is one recorded hook call.
type LifecycleEvent struct {
	Name string
	Hook Hook
}

func (e LifecycleEvent) String() string {
	return fmt.Sprintf("%s:%s", e.Name, e.Hook)
}

// Lifecycle records the hook calls of every Probe created from views that
// share it. Pass one per test; nothing is global.
type Lifecycle struct {
	Events []LifecycleEvent
}

// Count returns how many times hook fired for name.
func (l *Lifecycle) Count(name string, hook Hook) int {
	n := 0
	for _, e := range l.Events {
		if e.Name == name && e.Hook == hook {
			n++
		}
	}
	return n
}

// Total returns how many times hook fired for any name.
func (l *Lifecycle) Total(hook Hook) int {
	n := 0
	for _, e := range l.Events {
		if e.Hook == hook {
			n++
		}
	}
	return n
}

// Reset forgets recorded events.
func (l *Lifecycle) Reset() {
	l.Events = nil
}

// ProbeView is a stateful composite whose state records its lifecycle.
// Name and Value are its compared properties; Child is its body.
type ProbeView struct {
	core.ViewBase
	Name     string
	Value    int
	Child    core.View
	Recorder *Lifecycle
}

func (p ProbeView) Body(core.State) core.View { return p.Child }

func (p ProbeView) Equal(other core.View) bool {
	o, ok := other.(ProbeView)
	return ok && o.ListKey == p.ListKey && o.Name == p.Name && o.Value == p.Value && o.Recorder == p.Recorder
}

func (p ProbeView) CreateState() core.State {
	return &Probe{name: p.Name, recorder: p.Recorder}
}

// Probe is the state of a ProbeView.
type Probe struct {
	core.StateBase
	name     string
	recorder *Lifecycle

	Appeared    int
	Updated     int
	Disappeared int
	// Last is the view passed to the most recent WillUpdate.
	Last core.View
}

func (p *Probe) record(hook Hook) {
	if p.recorder != nil {
		p.recorder.Events = append(p.recorder.Events, LifecycleEvent{Name: p.name, Hook: hook})
	}
}

func (p *Probe) WillAppear() {
	p.Appeared++
	p.record(HookAppear)
}

func (p *Probe) WillUpdate(next core.View) {
	p.Updated++
	p.Last = next
	p.record(HookUpdate)
}

func (p *Probe) WillDisappear() {
	p.Disappeared++
	p.record(HookDisappear)
}
