package rpc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"strings"
)

// Kind tags which shape a reply was decoded into.
type Kind int

const (
	KindResult Kind = iota
	KindError
	KindRaw
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindResult:
		return "result"
	case KindError:
		return "error"
	case KindRaw:
		return "raw"
	default:
		return "other"
	}
}

// Response is the decoded reply. Only the field matching Kind is set:
// Result for KindResult, Message for KindError, Text for KindRaw and Body
// for KindOther.
type Response struct {
	Kind    Kind
	Result  any
	Message string
	Text    string
	Body    any
}

func ResultResponse(v any) Response {
	return Response{Kind: KindResult, Result: v}
}

func ErrorResponse(msg string) Response {
	return Response{Kind: KindError, Message: msg}
}

func RawResponse(text string) Response {
	return Response{Kind: KindRaw, Text: text}
}

// Decode turns a 200 reply body into a Response. Event-stream replies are
// reduced to their first data frame; anything that is not JSON is Raw.
func Decode(contentType string, data []byte) Response {
	if isEventStream(contentType, data) {
		if frame, ok := firstDataFrame(data); ok {
			data = []byte(frame)
		}
	}

	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return RawResponse(string(data))
	}

	return Classify(body)
}

// Classify picks the variant by key presence: error, then result, then raw.
func Classify(body any) Response {
	obj, ok := body.(map[string]any)
	if !ok {
		return Response{Kind: KindOther, Body: body}
	}

	if v, ok := obj["error"]; ok {
		return ErrorResponse(errorMessage(v))
	}
	if v, ok := obj["result"]; ok {
		return ResultResponse(v)
	}
	if v, ok := obj["raw"]; ok {
		if s, isString := v.(string); isString {
			return RawResponse(s)
		}
		return RawResponse(Pretty(v))
	}

	return Response{Kind: KindOther, Body: body}
}

// errorMessage flattens a JSON-RPC error member. Servers send either a bare
// string or an object with code/message.
func errorMessage(v any) string {
	switch e := v.(type) {
	case string:
		return e
	case map[string]any:
		msg, hasMsg := e["message"].(string)
		code, hasCode := e["code"].(float64)
		switch {
		case hasMsg && hasCode:
			return fmt.Sprintf("%s (code %d)", msg, int64(code))
		case hasMsg:
			return msg
		}
	}
	return Pretty(v)
}

func isEventStream(contentType string, data []byte) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "text/event-stream" {
		return true
	}
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("data:"))
}

// firstDataFrame returns the payload of the first "data:" line.
func firstDataFrame(data []byte) (string, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "data:")), true
		}
	}
	return "", false
}

// Pretty renders v as two-space indented JSON without HTML escaping.
func Pretty(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
