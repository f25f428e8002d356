package sockjs

import "testing"

func TestFrameEncode(t *testing.T) {
	cases := []struct {
		name  string
		frame *Frame
		want  string
	}{
		{"open", openFrame(), "o"},
		{"heartbeat", heartbeatFrame(), "h"},
		{"message", messageFrame("hello"), `a["hello"]`},
		{"messageVec", messageVecFrame([]string{"a", "b"}), `a["a","b"]`},
		{"close", closeFrame(CloseGoAway), `c[3000,"Go away!"]`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.frame.Encode(); got != c.want {
				t.Errorf("Encode() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestCoalesceForEmitMergesAdjacentMessages(t *testing.T) {
	frames := []*Frame{messageFrame("m1"), messageFrame("m2"), messageFrame("m3")}
	out := coalesceForEmit(frames)
	if len(out) != 1 {
		t.Fatalf("expected a single merged frame, got %d", len(out))
	}
	if got, want := out[0].Encode(), `a["m1","m2","m3"]`; got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestCoalesceForEmitBreaksOnNonMessageFrame(t *testing.T) {
	frames := []*Frame{messageFrame("m1"), closeFrame(CloseGoAway), messageFrame("m2")}
	out := coalesceForEmit(frames)
	if len(out) != 3 {
		t.Fatalf("expected 3 frames (run broken by close), got %d", len(out))
	}
	if out[0].Encode() != `a["m1"]` {
		t.Errorf("first frame = %q", out[0].Encode())
	}
	if out[1].kind != frameClose {
		t.Errorf("second frame kind = %v, want frameClose", out[1].kind)
	}
	if out[2].Encode() != `a["m2"]` {
		t.Errorf("third frame = %q", out[2].Encode())
	}
}

func TestCoalesceForEmitEmpty(t *testing.T) {
	if out := coalesceForEmit(nil); len(out) != 0 {
		t.Errorf("expected no frames, got %d", len(out))
	}
}
