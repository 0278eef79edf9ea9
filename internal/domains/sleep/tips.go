package sleep

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidShift = errors.New("invalid shift time, expected HH:MM")

const (
	recoveryWindowStart = 30 * time.Minute
	recoveryWindowEnd   = 120 * time.Minute
)

var equityTips = []string{
	"Darken the room for daytime sleep (curtains/towel).",
	"Keep a 10-minute pre-sleep routine, even on short windows.",
	"If noise is high, try a low-volume fan or white noise.",
}

type RecoveryWindow struct {
	From string `json:"from" example:"07:30"`
	To   string `json:"to" example:"09:00"`
}

// EquityPlan is the shift-aware advice for one work schedule.
type EquityPlan struct {
	ShiftStart     string         `json:"shiftStart" example:"23:00"`
	ShiftEnd       string         `json:"shiftEnd" example:"07:00"`
	NightShift     bool           `json:"nightShift"`
	RecoveryWindow RecoveryWindow `json:"recoveryWindow"`
	Message        string         `json:"message"`
	Tips           []string       `json:"tips"`
}

// PlanForShift builds the recovery window (30-120 min after shift end) and
// equity tips for a shift given as "HH:MM" wall-clock times.
func PlanForShift(start, end string) (EquityPlan, error) {
	s, err := time.Parse("15:04", start)
	if err != nil {
		return EquityPlan{}, fmt.Errorf("%w: start %q", ErrInvalidShift, start)
	}
	e, err := time.Parse("15:04", end)
	if err != nil {
		return EquityPlan{}, fmt.Errorf("%w: end %q", ErrInvalidShift, end)
	}

	tips := make([]string, len(equityTips))
	copy(tips, equityTips)

	return EquityPlan{
		ShiftStart: s.Format("15:04"),
		ShiftEnd:   e.Format("15:04"),
		NightShift: isNightShift(s, e),
		RecoveryWindow: RecoveryWindow{
			From: e.Add(recoveryWindowStart).Format("15:04"),
			To:   e.Add(recoveryWindowEnd).Format("15:04"),
		},
		Message: "We'll tailor tips to your schedule (e.g., recovery window 30–120 min after shift).",
		Tips:    tips,
	}, nil
}

// a shift is treated as a night shift when it wraps midnight or ends in the
// early morning
func isNightShift(start, end time.Time) bool {
	if !end.After(start) {
		return true
	}
	return end.Hour() < 9 || start.Hour() >= 20
}
