package server

import (
	"encoding/json"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

func TestJSONEnvelopeKeepsClientFieldNames(t *testing.T) {
	s := NewGameState(20, testRNG())
	b, err := JSONCodec.Encode(Envelope{Type: EventGameState, Data: s.View()})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var decoded struct {
		Type string `json:"type"`
		Data struct {
			Players []struct {
				Pos   map[string]int   `json:"pos"`
				Snake []map[string]int `json:"snake"`
				Vel   map[string]int   `json:"vel"`
			} `json:"players"`
			GridSize int             `json:"gridSize"`
			Food     *map[string]int `json:"food"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Type != EventGameState || decoded.Data.GridSize != 20 || decoded.Data.Food == nil {
		t.Fatalf("unexpected envelope: %s", b)
	}
	if len(decoded.Data.Players) != 2 || len(decoded.Data.Players[0].Snake) != 3 {
		t.Fatalf("unexpected players: %s", b)
	}
	if decoded.Data.Players[0].Pos["x"] != 3 || decoded.Data.Players[0].Pos["y"] != 10 {
		t.Fatalf("expected slot 1 head at (3,10), got %v", decoded.Data.Players[0].Pos)
	}
}

func TestJSONEnvelopeOmitsEmptyData(t *testing.T) {
	b, err := JSONCodec.Encode(Envelope{Type: EventUnknownCode})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(b) != `{"type":"unknownCode"}` {
		t.Fatalf("unexpected encoding %s", b)
	}
}

func TestMsgpackEnvelope(t *testing.T) {
	b, err := MsgpackCodec.Encode(Envelope{Type: EventGameOver, Data: GameOverPayload{Winner: SlotTwo}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var decoded struct {
		Type string `msgpack:"type"`
		Data struct {
			Winner int `msgpack:"winner"`
		} `msgpack:"data"`
	}
	if err := msgpack.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Type != EventGameOver || decoded.Data.Winner != 2 {
		t.Fatalf("unexpected decoded envelope %+v", decoded)
	}
	if MsgpackCodec.MessageType() != websocket.BinaryMessage {
		t.Fatalf("expected msgpack to use binary frames")
	}
}

func TestCodecByName(t *testing.T) {
	if CodecByName("MSGPACK").Name() != "msgpack" {
		t.Fatalf("expected msgpack codec")
	}
	if CodecByName("").Name() != "json" || CodecByName("xml").Name() != "json" {
		t.Fatalf("expected json fallback")
	}
}

func TestDecodeInput(t *testing.T) {
	im, err := DecodeInput(websocket.TextMessage, []byte(`{"type":"joinGame","code":"ab12c"}`))
	if err != nil || im.Type != EventJoinGame || im.Code != "ab12c" {
		t.Fatalf("unexpected text decode: %+v (%v)", im, err)
	}

	for _, keyCode := range []any{39, "39"} {
		b, err := msgpack.Marshal(map[string]any{"type": "keydown", "keyCode": keyCode})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		im, err := DecodeInput(websocket.BinaryMessage, b)
		if err != nil {
			t.Fatalf("binary decode: %v", err)
		}
		code, ok := ParseKeyCode(im.KeyCode)
		if im.Type != EventKeydown || !ok || code != 39 {
			t.Fatalf("keyCode %v: expected keydown 39, got %+v (%d, %v)", keyCode, im, code, ok)
		}
	}

	if _, err := DecodeInput(websocket.TextMessage, []byte(`not json`)); err == nil {
		t.Fatalf("expected malformed json to fail")
	}
}
