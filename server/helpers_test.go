package server

import (
	"sync"
	"testing"
	"time"

	"golang.org/x/exp/rand"
)

type sentEvent struct {
	to      ConnID // 单播目标；广播时为空
	room    string // 广播房间；单播时为空
	event   string
	payload any
}

// fakeTransport 记录所有出站事件
type fakeTransport struct {
	mu       sync.Mutex
	events   []sentEvent
	members  map[string][]ConnID
	released []string
	notify   chan sentEvent
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		members: make(map[string][]ConnID),
		notify:  make(chan sentEvent, 1024),
	}
}

func (f *fakeTransport) record(e sentEvent) {
	f.mu.Lock()
	f.events = append(f.events, e)
	f.mu.Unlock()
	select {
	case f.notify <- e:
	default:
	}
}

func (f *fakeTransport) Deliver(id ConnID, event string, payload any) {
	f.record(sentEvent{to: id, event: event, payload: payload})
}

func (f *fakeTransport) Broadcast(code string, event string, payload any) {
	f.record(sentEvent{room: code, event: event, payload: payload})
}

func (f *fakeTransport) Subscribe(code string, id ConnID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[code] = append(f.members[code], id)
}

func (f *fakeTransport) Release(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members, code)
	f.released = append(f.released, code)
}

func (f *fakeTransport) snapshot() []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentEvent, len(f.events))
	copy(out, f.events)
	return out
}

func (f *fakeTransport) eventsNamed(name string) []sentEvent {
	var out []sentEvent
	for _, e := range f.snapshot() {
		if e.event == name {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeTransport) wasReleased(code string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.released {
		if c == code {
			return true
		}
	}
	return false
}

// waitFor 等待指定事件出现
func (f *fakeTransport) waitFor(t *testing.T, name string, timeout time.Duration) sentEvent {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case e := <-f.notify:
			if e.event == name {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", name)
			return sentEvent{}
		}
	}
}

func testRNG() *rand.Rand { return testRNGSeed(42) }

func testRNGSeed(seed uint64) *rand.Rand { return rand.New(rand.NewSource(seed)) }

// line 构造一条水平的蛇：头在 head，身体向 -dir 方向延伸
func line(head, dir Point, length int) []Point {
	body := make([]Point, 0, length)
	for i := 0; i < length; i++ {
		body = append(body, Point{X: head.X - dir.X*i, Y: head.Y - dir.Y*i})
	}
	return body
}

// duelState 两条长度为 3 的蛇，食物放在远离双方的角落
func duelState(gridSize int, p1, v1, p2, v2 Point) GameState {
	return GameState{
		GridSize: gridSize,
		Players: [2]Player{
			{Pos: p1, Snake: line(p1, DirRight, 3), Vel: v1},
			{Pos: p2, Snake: line(p2, DirLeft, 3), Vel: v2},
		},
		Food: FoodAt(Point{X: 0, Y: gridSize - 1}),
	}
}
