package hos

import (
	"fmt"
	"time"
)

// Driver limits (49 CFR 395.3). The planner and the compliance checks both
// read them from here.
const (
	MaxDrivingPerShift  = 11 * time.Hour
	DutyWindow          = 14 * time.Hour
	DrivingBeforeBreak  = 8 * time.Hour
	MinBreak            = 30 * time.Minute
	ShiftResetOffDuty   = 10 * time.Hour
	CycleRestartOffDuty = 34 * time.Hour
)

// Rule citations attached to planner entries and violations.
const (
	RuleDriving      = "FMCSA 395.3(a)(1)"
	RuleOnDuty       = "FMCSA 395.3(a)(2)"
	RuleShiftReset   = "FMCSA 395.3(a)(1) 10-hour off duty"
	RuleDutyWindow   = "FMCSA 395.3(a)(2) 14-hour rule"
	RuleDrivingLimit = "FMCSA 395.3(a)(3)(i) 11-hour rule"
	RuleBreak        = "FMCSA 395.3(a)(3)(ii) 30-minute break"
	RuleCycle60      = "FMCSA 395.3(b)(1) 60-hour/7-day"
	RuleCycle70      = "FMCSA 395.3(b)(2) 70-hour/8-day"
	RuleRestart      = "FMCSA 395.3(c) 34-hour restart"
)

// ViolationKind classifies a compliance finding.
type ViolationKind string

const (
	DrivingLimitExceeded ViolationKind = "driving_limit"
	DutyWindowExceeded   ViolationKind = "duty_window"
	BreakMissing         ViolationKind = "break_required"
	CycleLimitExceeded   ViolationKind = "cycle_limit"
)

// Violation is one breach of an HOS limit, located at the instant it began.
type Violation struct {
	Kind    ViolationKind `json:"kind"`
	Rule    string        `json:"rule"`
	At      time.Time     `json:"at"`
	Message string        `json:"message"`
}

// shiftState tracks the counters that reset on breaks and 10-hour rests.
type shiftState struct {
	windowStart      time.Time // zero until the first on-duty time of the shift
	driving          time.Duration
	drivingSinceRest time.Duration // since the last qualifying 30-minute break
	nonDrivingRun    time.Duration
	offDutyRun       time.Duration
	flagged          map[ViolationKind]bool
}

func (s *shiftState) takeBreak() {
	s.drivingSinceRest = 0
	delete(s.flagged, BreakMissing)
}

func (s *shiftState) resetShift() {
	s.windowStart = time.Time{}
	s.driving = 0
	s.drivingSinceRest = 0
	s.flagged = map[ViolationKind]bool{}
}

// CheckCompliance scans entries in time order and reports breaches of the
// 11-hour driving limit, the 14-hour duty window and the 30-minute break
// rule. A gap between entries interrupts any running break or rest. The
// window and driving limits are reported at most once per shift, the break
// rule at most once between qualifying breaks.
func CheckCompliance(entries []DutyEntry) []Violation {
	sorted := sortedCopy(entries)
	var out []Violation
	st := shiftState{flagged: map[ViolationKind]bool{}}
	var prevEnd time.Time

	report := func(kind ViolationKind, rule string, at time.Time, msg string) {
		if st.flagged[kind] {
			return
		}
		st.flagged[kind] = true
		out = append(out, Violation{Kind: kind, Rule: rule, At: at, Message: msg})
	}

	for _, e := range sorted {
		if !e.End.After(e.Start) {
			continue
		}
		if !prevEnd.IsZero() && !e.Start.Equal(prevEnd) {
			st.nonDrivingRun = 0
			st.offDutyRun = 0
		}
		d := e.Duration()

		switch e.Status {
		case OffDuty, Sleeper:
			st.nonDrivingRun += d
			st.offDutyRun += d
			if st.offDutyRun >= ShiftResetOffDuty {
				st.resetShift()
			} else if st.nonDrivingRun >= MinBreak {
				st.takeBreak()
			}

		case OnDutyNotDriving:
			if st.windowStart.IsZero() {
				st.windowStart = e.Start
			}
			st.offDutyRun = 0
			st.nonDrivingRun += d
			if st.nonDrivingRun >= MinBreak {
				st.takeBreak()
			}

		case Driving:
			if st.windowStart.IsZero() {
				st.windowStart = e.Start
			}
			st.offDutyRun = 0
			st.nonDrivingRun = 0

			if st.driving+d > MaxDrivingPerShift {
				at := e.Start.Add(maxDur(0, MaxDrivingPerShift-st.driving))
				report(DrivingLimitExceeded, RuleDrivingLimit, at,
					fmt.Sprintf("driving exceeds %.0f hours in one shift", MaxDrivingPerShift.Hours()))
			}
			if windowEnd := st.windowStart.Add(DutyWindow); e.End.After(windowEnd) {
				at := e.Start
				if windowEnd.After(at) {
					at = windowEnd
				}
				report(DutyWindowExceeded, RuleDutyWindow, at,
					fmt.Sprintf("driving after the %.0f-hour duty window closed", DutyWindow.Hours()))
			}
			if st.drivingSinceRest+d > DrivingBeforeBreak {
				at := e.Start.Add(maxDur(0, DrivingBeforeBreak-st.drivingSinceRest))
				report(BreakMissing, RuleBreak, at,
					fmt.Sprintf("%.0f minutes off driving required after %.0f hours of driving",
						MinBreak.Minutes(), DrivingBeforeBreak.Hours()))
			}
			st.driving += d
			st.drivingSinceRest += d
		}
		prevEnd = e.End
	}
	return out
}

func maxDur(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
