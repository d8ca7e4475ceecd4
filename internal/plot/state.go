// Package plot tracks plot flag state and evaluates the conditions and
// actions that dialog lines attach to it.
package plot

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// Reader is read access to plot flags.
type Reader interface {
	Get(plot string, flag int32) int32
	Has(plot string, flag int32) bool
}

// Writer is write access to plot flags.
type Writer interface {
	Set(plot string, flag int32, value int32)
}

type key struct {
	plot string
	flag int32
}

// Flag is one stored plot flag.
type Flag struct {
	Plot  string `json:"plot"`
	Index int32  `json:"flag"`
	Value int32  `json:"value"`
}

func (f Flag) String() string {
	return fmt.Sprintf("%s:%d = %d", f.Plot, f.Index, f.Value)
}

// State maps (plot name, flag index) to an integer value. Absent flags read
// as 0. Each Set overwrites one flag; there are no transactions.
//
// State is not safe for concurrent use.
type State struct {
	flags map[key]int32
}

// NewState returns an empty plot state.
func NewState() *State {
	return &State{flags: make(map[key]int32)}
}

// Set stores value for the flag. Empty plot names and negative flag
// indices are ignored.
func (s *State) Set(plot string, flag int32, value int32) {
	if plot == "" || flag < 0 {
		return
	}
	s.flags[key{plot, flag}] = value
	slog.Debug("plot flag set", "plot", plot, "flag", flag, "value", value)
}

// Get returns the flag's value, or 0 when it was never set.
func (s *State) Get(plot string, flag int32) int32 {
	if plot == "" || flag < 0 {
		return 0
	}
	return s.flags[key{plot, flag}]
}

// Has reports whether the flag was ever set.
func (s *State) Has(plot string, flag int32) bool {
	if plot == "" || flag < 0 {
		return false
	}
	_, ok := s.flags[key{plot, flag}]
	return ok
}

// Len returns the number of stored flags.
func (s *State) Len() int {
	return len(s.flags)
}

// Reset clears every flag.
func (s *State) Reset() {
	clear(s.flags)
}

// Flags returns the stored flags sorted by plot name, then flag index.
func (s *State) Flags() []Flag {
	out := make([]Flag, 0, len(s.flags))
	for k, v := range s.flags {
		out = append(out, Flag{Plot: k.plot, Index: k.flag, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Plot != out[j].Plot {
			return out[i].Plot < out[j].Plot
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// ParseAssignment parses "plot:flag=value". The value defaults to 1 when
// "=value" is omitted.
func ParseAssignment(s string) (Flag, error) {
	lhs, rhs, hasValue := strings.Cut(strings.TrimSpace(s), "=")
	i := strings.LastIndex(lhs, ":")
	if i <= 0 {
		return Flag{}, fmt.Errorf("invalid assignment %q: want plot:flag[=value]", s)
	}
	name := strings.TrimSpace(lhs[:i])
	flag, err := strconv.ParseInt(strings.TrimSpace(lhs[i+1:]), 10, 32)
	if err != nil || flag < 0 {
		return Flag{}, fmt.Errorf("invalid flag in %q", s)
	}
	f := Flag{Plot: name, Index: int32(flag), Value: 1}
	if hasValue {
		v, err := strconv.ParseInt(strings.TrimSpace(rhs), 10, 32)
		if err != nil {
			return Flag{}, fmt.Errorf("invalid value in %q", s)
		}
		f.Value = int32(v)
	}
	return f, nil
}
