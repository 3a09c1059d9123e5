package recast

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// / Recast performance timer categories.
type RcTimerLabel int

const (
	RC_TIMER_TOTAL RcTimerLabel = iota
	RC_TIMER_RASTERIZE_TRIANGLES
	RC_TIMER_BUILD_COMPACTHEIGHTFIELD
	RC_TIMER_BUILD_CONTOURS
	RC_TIMER_BUILD_CONTOURS_TRACE
	RC_TIMER_BUILD_CONTOURS_SIMPLIFY
	RC_TIMER_FILTER_BORDER
	RC_TIMER_FILTER_WALKABLE
	RC_TIMER_MEDIAN_AREA
	RC_TIMER_FILTER_LOW_OBSTACLES
	RC_TIMER_BUILD_POLYMESH
	RC_TIMER_MERGE_POLYMESH
	RC_TIMER_ERODE_AREA
	RC_TIMER_MARK_CONVEXPOLY_AREA
	RC_TIMER_BUILD_DISTANCEFIELD
	RC_TIMER_BUILD_DISTANCEFIELD_DIST
	RC_TIMER_BUILD_DISTANCEFIELD_BLUR
	RC_TIMER_BUILD_REGIONS
	RC_TIMER_BUILD_REGIONS_WATERSHED
	RC_TIMER_BUILD_REGIONS_EXPAND
	RC_TIMER_BUILD_REGIONS_FLOOD
	RC_TIMER_BUILD_REGIONS_FILTER
	RC_TIMER_BUILD_POLYMESHDETAIL
	RC_MAX_TIMERS
)

var timerNames = [RC_MAX_TIMERS]string{
	"total",
	"rasterize triangles",
	"build compact",
	"build contours",
	"trace contours",
	"simplify contours",
	"filter border",
	"filter walkable",
	"median area",
	"filter low obstacles",
	"build polymesh",
	"merge polymesh",
	"erode area",
	"mark convex area",
	"build distance field",
	"distance",
	"blur",
	"build regions",
	"watershed",
	"expand",
	"flood",
	"filter regions",
	"build detail mesh",
}

func (l RcTimerLabel) String() string {
	if l < 0 || l >= RC_MAX_TIMERS {
		return fmt.Sprintf("timer(%d)", int(l))
	}
	return timerNames[l]
}

// RcContext carries logging and per-stage timers through one build. It is
// owned by a single build and is not safe for concurrent use.
type RcContext struct {
	log        *zap.SugaredLogger
	startTime  [RC_MAX_TIMERS]time.Time
	accTime    [RC_MAX_TIMERS]time.Duration
	timerOn    bool
	warnings   int
}

func NewRcContext(logger *zap.Logger) *RcContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RcContext{log: logger.Sugar(), timerOn: true}
}

func (ctx *RcContext) EnableTimer(on bool) {
	ctx.timerOn = on
}

func (ctx *RcContext) ResetTimers() {
	ctx.accTime = [RC_MAX_TIMERS]time.Duration{}
	ctx.startTime = [RC_MAX_TIMERS]time.Time{}
}

func (ctx *RcContext) StartTimer(label RcTimerLabel) {
	if ctx.timerOn {
		ctx.startTime[label] = time.Now()
	}
}

func (ctx *RcContext) StopTimer(label RcTimerLabel) {
	if ctx.timerOn && !ctx.startTime[label].IsZero() {
		ctx.accTime[label] += time.Since(ctx.startTime[label])
	}
}

func (ctx *RcContext) GetAccumulatedTime(label RcTimerLabel) time.Duration {
	return ctx.accTime[label]
}

// Timings returns all non-zero stage timings keyed by stage name.
func (ctx *RcContext) Timings() map[string]time.Duration {
	res := map[string]time.Duration{}
	for i := RcTimerLabel(0); i < RC_MAX_TIMERS; i++ {
		if ctx.accTime[i] > 0 {
			res[i.String()] = ctx.accTime[i]
		}
	}
	return res
}

func (ctx *RcContext) Progressf(format string, args ...any) {
	ctx.log.Debugf(format, args...)
}

func (ctx *RcContext) Warnf(format string, args ...any) {
	ctx.warnings++
	ctx.log.Warnf(format, args...)
}

func (ctx *RcContext) Errorf(format string, args ...any) {
	ctx.log.Errorf(format, args...)
}

// Warnings counts the degenerate inputs absorbed during the build.
func (ctx *RcContext) Warnings() int {
	return ctx.warnings
}

func (ctx *RcContext) LogBuildTimes() {
	total := ctx.accTime[RC_TIMER_TOTAL]
	fields := make([]any, 0, 2*RC_MAX_TIMERS)
	for i := RcTimerLabel(0); i < RC_MAX_TIMERS; i++ {
		if ctx.accTime[i] > 0 {
			fields = append(fields, i.String(), ctx.accTime[i])
		}
	}
	ctx.log.Infow(fmt.Sprintf("build times (total %v)", total), fields...)
}
