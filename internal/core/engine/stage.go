package engine

// Stage names one of the fixed scheduling buckets a system can be added
// to. The three init stages run once at startup, the six frame stages run
// every frame in order, the three shutdown stages run once at teardown.
// Each stage owns an independently resolved schedule.
type Stage uint8

const (
	StagePreInit Stage = iota
	StageInit
	StagePostInit
	StagePreUpdate
	StageUpdate
	StagePostUpdate
	StagePreRender
	StageRender
	StagePostRender
	StagePreShutdown
	StageShutdown
	StagePostShutdown

	stageCount = int(StagePostShutdown) + 1
)

var stageNames = [...]string{
	StagePreInit:      "pre-init",
	StageInit:         "init",
	StagePostInit:     "post-init",
	StagePreUpdate:    "pre-update",
	StageUpdate:       "update",
	StagePostUpdate:   "post-update",
	StagePreRender:    "pre-render",
	StageRender:       "render",
	StagePostRender:   "post-render",
	StagePreShutdown:  "pre-shutdown",
	StageShutdown:     "shutdown",
	StagePostShutdown: "post-shutdown",
}

func (s Stage) String() string {
	if int(s) >= stageCount {
		return "unknown"
	}
	return stageNames[s]
}

func (s Stage) valid() bool {
	return int(s) < stageCount
}

// initStages run exactly once, before the first frame.
var initStages = []Stage{StagePreInit, StageInit, StagePostInit}

// frameStages run every frame in this order.
var frameStages = []Stage{
	StagePreUpdate, StageUpdate, StagePostUpdate,
	StagePreRender, StageRender, StagePostRender,
}

// shutdownStages run exactly once, after the last frame.
var shutdownStages = []Stage{StagePreShutdown, StageShutdown, StagePostShutdown}
