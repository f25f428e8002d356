package sockjs

import "testing"

func TestOptionsSetDefaults(t *testing.T) {
	var o Options
	o.setDefaults()

	if o.MaxSize != defaultMaxSize {
		t.Errorf("MaxSize = %d, want %d", o.MaxSize, defaultMaxSize)
	}
	if o.DisableTransports == nil {
		t.Error("DisableTransports should be initialized to an empty map")
	}
	if o.SessionFactory == nil {
		t.Fatal("SessionFactory should default to a factory")
	}
	if _, ok := o.SessionFactory().(BaseHandler); !ok {
		t.Error("default SessionFactory should return BaseHandler")
	}
	if o.RedisChannel != "sockjs:broadcast" {
		t.Errorf("RedisChannel = %q, want sockjs:broadcast", o.RedisChannel)
	}
}

func TestTransportEnabled(t *testing.T) {
	o := Options{DisableTransports: map[string]bool{"xhr": true}}
	o.setDefaults()

	if o.transportEnabled("xhr") {
		t.Error("xhr should be disabled")
	}
	if !o.transportEnabled("eventsource") {
		t.Error("eventsource should remain enabled")
	}
}

func TestWebsocketEnabledDefault(t *testing.T) {
	var o Options
	o.setDefaults()
	if !o.websocketEnabled() {
		t.Error("websocket should be enabled by default")
	}

	o.DisableTransports["websocket"] = true
	if o.websocketEnabled() {
		t.Error("websocket should be disabled once DisableTransports[\"websocket\"] is set")
	}
	if o.transportEnabled("websocket") {
		t.Error("transportEnabled(websocket) should follow websocketEnabled")
	}
}
