package sched

import (
	"fmt"
	"strings"
)

// Priority is the urgency of a Work item. Levels are totally ordered by rank:
// Immediate > UserBlocking > Normal > Low > Idle.
type Priority int

const (
	// Idle is the lowest level and doubles as the "nothing is active" sentinel.
	Idle Priority = iota
	Low
	Normal
	UserBlocking
	// Immediate work ignores yield signals and runs to completion.
	Immediate
)

// Priorities lists every level from most to least urgent.
var Priorities = []Priority{Immediate, UserBlocking, Normal, Low, Idle}

// Valid reports whether p is one of the defined levels.
func (p Priority) Valid() bool {
	return p >= Idle && p <= Immediate
}

// Higher reports whether p is strictly more urgent than q.
func (p Priority) Higher(q Priority) bool { return p > q }

func (p Priority) String() string {
	switch p {
	case Immediate:
		return "immediate"
	case UserBlocking:
		return "user_blocking"
	case Normal:
		return "normal"
	case Low:
		return "low"
	case Idle:
		return "idle"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Glyph is the single-character form used in step output.
func (p Priority) Glyph() string {
	switch p {
	case Immediate:
		return "I"
	case UserBlocking:
		return "U"
	case Normal:
		return "N"
	case Low:
		return "L"
	case Idle:
		return "."
	default:
		return "?"
	}
}

// ParsePriority accepts the names produced by String, case-insensitively,
// with '-' or '_' as separator.
func ParsePriority(s string) (Priority, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "immediate":
		return Immediate, nil
	case "user_blocking", "userblocking":
		return UserBlocking, nil
	case "normal":
		return Normal, nil
	case "low":
		return Low, nil
	case "idle":
		return Idle, nil
	}
	return Idle, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}
