package websocket

import (
	"bytes"
	"testing"
)

func TestDirectRegistryPresenceInvariant(t *testing.T) {
	r := NewDirectRegistry()
	c1 := NewClient(newFakeConn(), 7)
	c2 := NewClient(newFakeConn(), 7)

	if r.IsOnline(7) {
		t.Error("user should be offline before any register")
	}

	r.Register(7, c1)
	r.Register(7, c2)
	if !r.IsOnline(7) {
		t.Error("user should be online with two connections")
	}

	r.Unregister(7, c1)
	if !r.IsOnline(7) {
		t.Error("user should stay online while one connection remains")
	}

	r.Unregister(7, c2)
	if r.IsOnline(7) {
		t.Error("user should be offline once the last connection is gone")
	}
	if len(r.conns) != 0 {
		t.Errorf("registry should hold no entries, got %d", len(r.conns))
	}
}

func TestDirectRegistryUnregisterAbsent(t *testing.T) {
	r := NewDirectRegistry()
	c := NewClient(newFakeConn(), 1)

	// Must be safe under races between disconnect cleanup and delivery.
	r.Unregister(1, c)
	r.Register(1, c)
	r.Unregister(1, NewClient(newFakeConn(), 1))

	if !r.IsOnline(1) {
		t.Error("unregistering an unknown connection must not evict the known one")
	}
}

func TestDirectRegistryDeliverFansOutToAllConnections(t *testing.T) {
	r := NewDirectRegistry()
	c1 := NewClient(newFakeConn(), 7)
	c2 := NewClient(newFakeConn(), 7)
	other := NewClient(newFakeConn(), 8)

	r.Register(7, c1)
	r.Register(7, c2)
	r.Register(8, other)

	payload := []byte(`{"hello":"world"}`)
	r.Deliver(7, payload)

	for _, c := range []*Client{c1, c2} {
		if got := recv(t, c); !bytes.Equal(got, payload) {
			t.Errorf("connection got %s, want %s", got, payload)
		}
		expectNone(t, c)
	}
	expectNone(t, other)
}

func TestDirectRegistryDeliverToOfflineUserIsNoOp(t *testing.T) {
	r := NewDirectRegistry()
	r.Deliver(42, []byte("dropped"))
}
