// Package policy maps sector clearances and the near-start signal to a
// velocity command through a fixed-priority rule ladder: an ordered list of
// condition/command pairs evaluated top to bottom, first match wins. The
// ladder is a hand-tuned decision tree; branch order is load-bearing
// because later branches are shadowed by earlier ones.
package policy

import (
	"github.com/ethanLin520/turtlebot3/internal/config"
	"github.com/ethanLin520/turtlebot3/pkg/scan"
)

// Command is a (linear, angular) velocity pair.
type Command struct {
	Linear  float64 `json:"linear"`
	Angular float64 `json:"angular"`
}

// Scale returns the command with both components multiplied by factor.
func (c Command) Scale(factor float64) Command {
	return Command{Linear: c.Linear * factor, Angular: c.Angular * factor}
}

// Input is one decision cycle's worth of fused sensor state.
type Input struct {
	Clearances scan.Clearances
	NearStart  bool
}

// Rule is one rung of the ladder.
type Rule struct {
	Name    string
	Match   func(Input) bool
	Command Command
}

// Ladder evaluates rules in order and returns the first match.
type Ladder struct {
	rules []Rule
}

// NewLadder builds the wall-following ladder from the given constants.
// The clearances fed to Decide must use the reference 12-sector layout.
func NewLadder(p config.PolicyConfig) *Ladder {
	return &Ladder{rules: []Rule{
		{
			Name:    "near_start_stop",
			Match:   func(in Input) bool { return in.NearStart },
			Command: Command{0, 0},
		},
		{
			// Wall on the left has receded past following distance:
			// slow down and turn back toward it.
			Name:    "left_front_open",
			Match:   func(in Input) bool { return in.Clearances[scan.LeftFront] > p.LeftFrontClear },
			Command: Command{p.SlowVelocity, p.AngularVelocity},
		},
		{
			Name:    "front_blocked",
			Match:   func(in Input) bool { return in.Clearances[scan.Front] < p.FrontBlocked },
			Command: Command{0, -p.AngularVelocity},
		},
		{
			Name:    "front_left_near",
			Match:   func(in Input) bool { return in.Clearances[scan.FrontLeft] < p.FrontLeftNear },
			Command: Command{p.LinearVelocity, -p.AngularVelocity},
		},
		{
			Name:    "front_right_near",
			Match:   func(in Input) bool { return in.Clearances[scan.FrontRight] < p.FrontRightNear },
			Command: Command{p.LinearVelocity, p.AngularVelocity},
		},
		{
			Name:    "left_front_follow",
			Match:   func(in Input) bool { return in.Clearances[scan.LeftFront] > p.LeftFrontFollow },
			Command: Command{p.LinearVelocity, p.AngularVelocity},
		},
		{
			Name:    "straight",
			Match:   func(Input) bool { return true },
			Command: Command{p.LinearVelocity, 0},
		},
	}}
}

// Decide returns the command of the first matching rule and its name.
// Total over well-formed inputs: the final rule always matches.
func (l *Ladder) Decide(in Input) (Command, string) {
	for _, r := range l.rules {
		if r.Match(in) {
			return r.Command, r.Name
		}
	}
	// Unreachable with a well-formed ladder.
	return Command{}, "none"
}

// Rules returns the rule names in evaluation order.
func (l *Ladder) Rules() []string {
	names := make([]string, len(l.rules))
	for i, r := range l.rules {
		names[i] = r.Name
	}
	return names
}
