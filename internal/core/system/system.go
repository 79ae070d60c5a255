package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain packet queues
	PhasePreUpdate               // 1: process last tick's events
	PhaseUpdate                  // 2: buff ticks
	PhasePostUpdate              // 3: post-update bookkeeping
	PhaseOutput                  // 4: build + send packets
	PhasePersist                 // 5: buff snapshot save
	PhaseCleanup                 // 6: end-of-tick cleanup
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
