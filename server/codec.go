package server

import (
	"encoding/json"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Envelope 出站消息外壳：{"type":"gameState","data":{...}}
type Envelope struct {
	Type string `json:"type" msgpack:"type"`
	Data any    `json:"data,omitempty" msgpack:"data,omitempty"`
}

// Codec 出站消息编码方式，每个连接在握手时选定
type Codec interface {
	Name() string
	// MessageType WebSocket 帧类型
	MessageType() int
	Encode(env Envelope) ([]byte, error)
}

type jsonCodec struct{}

func (jsonCodec) Name() string     { return "json" }
func (jsonCodec) MessageType() int { return websocket.TextMessage }
func (jsonCodec) Encode(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string     { return "msgpack" }
func (msgpackCodec) MessageType() int { return websocket.BinaryMessage }
func (msgpackCodec) Encode(env Envelope) ([]byte, error) {
	return msgpack.Marshal(&env)
}

var (
	JSONCodec    Codec = jsonCodec{}
	MsgpackCodec Codec = msgpackCodec{}
)

// CodecByName 根据查询参数选择编码，未知名称回落到 JSON
func CodecByName(name string) Codec {
	switch strings.ToLower(name) {
	case "msgpack", "mp":
		return MsgpackCodec
	default:
		return JSONCodec
	}
}

// binaryInput msgpack 入站消息，keyCode 可能是整数或字符串
type binaryInput struct {
	Type    string `msgpack:"type"`
	Code    string `msgpack:"code"`
	KeyCode any    `msgpack:"keyCode"`
}

// DecodeInput 解析入站帧：文本帧为 JSON，二进制帧为 msgpack
func DecodeInput(messageType int, payload []byte) (InputMessage, error) {
	var im InputMessage
	if messageType != websocket.BinaryMessage {
		err := json.Unmarshal(payload, &im)
		return im, err
	}
	var bi binaryInput
	if err := msgpack.Unmarshal(payload, &bi); err != nil {
		return im, err
	}
	im.Type, im.Code = bi.Type, bi.Code
	if bi.KeyCode != nil {
		raw, err := json.Marshal(bi.KeyCode)
		if err != nil {
			return im, err
		}
		im.KeyCode = raw
	}
	return im, nil
}
