package protocol

import (
	"encoding/json"
	"testing"
)

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		isEvent bool
		wantErr bool
	}{
		{"response", `{"id":"r1","result":{"ok":true}}`, false, false},
		{"error_response", `{"id":"r2","error":{"code":-32601,"message":"unknown method"}}`, false, false},
		{"event", `{"event":"content","payload":{"text":"hi"}}`, true, false},
		{"unroutable", `{"result":{"ok":true}}`, false, true},
		{"invalid_json", `{`, false, true},
		{"empty_object", `{}`, false, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := ParseFrame([]byte(tc.data))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseFrame(%s) expected error, got %+v", tc.data, f)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFrame(%s) error: %v", tc.data, err)
			}
			if f.IsEvent() != tc.isEvent {
				t.Errorf("IsEvent() = %v; want %v", f.IsEvent(), tc.isEvent)
			}
		})
	}
}

func TestRequestRoundtrip(t *testing.T) {
	req := RPCRequest{ID: "abc", Method: "chat.send", Params: map[string]any{"message": "hello"}}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["id"] != "abc" || got["method"] != "chat.send" {
		t.Errorf("unexpected encoding: %v", got)
	}
}

func TestEventTypeTerminal(t *testing.T) {
	tests := []struct {
		typ  EventType
		want bool
	}{
		{EventDone, true},
		{EventError, true},
		{EventContent, false},
		{EventThinking, false},
		{EventType("weird.custom"), false},
	}
	for _, tc := range tests {
		if got := tc.typ.Terminal(); got != tc.want {
			t.Errorf("Terminal(%q) = %v; want %v", tc.typ, got, tc.want)
		}
	}
}
