package server

import (
	"encoding/json"
	"testing"
)

func TestUpdatedVelocityKeyMapping(t *testing.T) {
	cases := []struct {
		key  int
		want Point
	}{
		{KeyLeft, DirLeft},
		{KeyUp, DirUp},
		{KeyRight, DirRight},
		{KeyDown, DirDown},
		{KeyA, DirLeft},
		{KeyW, DirUp},
		{KeyD, DirRight},
		{KeyS, DirDown},
	}
	for _, tc := range cases {
		got, ok := UpdatedVelocity(tc.key, Point{})
		if !ok {
			t.Fatalf("key %d: expected accepted direction", tc.key)
		}
		if got != tc.want {
			t.Fatalf("key %d: expected %+v, got %+v", tc.key, tc.want, got)
		}
	}
}

func TestUpdatedVelocityUnknownKey(t *testing.T) {
	for _, key := range []int{0, -1, 13, 32, 36, 41, 1000} {
		if _, ok := UpdatedVelocity(key, DirRight); ok {
			t.Fatalf("key %d: expected no update", key)
		}
	}
}

func TestUpdatedVelocityNeverReverses(t *testing.T) {
	keys := []int{KeyLeft, KeyUp, KeyRight, KeyDown, KeyA, KeyW, KeyD, KeyS}
	for _, heading := range []Point{DirLeft, DirUp, DirRight, DirDown} {
		for _, key := range keys {
			got, ok := UpdatedVelocity(key, heading)
			if ok && got == heading.Neg() {
				t.Fatalf("heading %+v key %d: reversal %+v accepted", heading, key, got)
			}
		}
	}
}

func TestPlayerHeadingFollowsBody(t *testing.T) {
	p := Player{Pos: Point{X: 3, Y: 10}, Snake: []Point{{X: 3, Y: 10}, {X: 2, Y: 10}, {X: 1, Y: 10}}}
	if h := p.Heading(); h != DirRight {
		t.Fatalf("expected heading right, got %+v", h)
	}
	// 已暂存向上但尚未移动，按下左键仍是掉头
	p.Vel = DirUp
	if _, ok := UpdatedVelocity(KeyLeft, p.Heading()); ok {
		t.Fatalf("expected left to be rejected while the body still points right")
	}

	single := Player{Pos: Point{X: 1, Y: 1}, Snake: []Point{{X: 1, Y: 1}}, Vel: DirDown}
	if h := single.Heading(); h != DirDown {
		t.Fatalf("expected single-cell heading to fall back to velocity, got %+v", h)
	}
}

func TestParseKeyCode(t *testing.T) {
	cases := []struct {
		raw  string
		want int
		ok   bool
	}{
		{`37`, 37, true},
		{`"38"`, 38, true},
		{`" 39 "`, 39, true},
		{`"abc"`, 0, false},
		{`37.5`, 0, false},
		{`null`, 0, false},
		{`{}`, 0, false},
		{``, 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseKeyCode(json.RawMessage(tc.raw))
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseKeyCode(%s): expected (%d, %v), got (%d, %v)", tc.raw, tc.want, tc.ok, got, ok)
		}
	}
}
