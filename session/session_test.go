package session

import (
	"net"
	"testing"
	"time"

	"github.com/nsec/sshpacket/packet"
)

func TestSessionDefaultHandlersDiscardIgnore(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	srv := New(server, packet.Config{Role: packet.RoleServer})
	srv.Phase().Session = packet.StateAuthenticated

	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	cli := New(client, packet.Config{Role: packet.RoleClient})
	if err := cli.Send(packet.MsgIgnore, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}

	client.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("server Run did not return after the connection closed")
	}
}

func TestSessionDisconnectSetsErrorState(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	srv := New(server, packet.Config{Role: packet.RoleServer})
	srv.Phase().Session = packet.StateAuthenticated

	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	cli := New(client, packet.Config{Role: packet.RoleClient})
	payload := make([]byte, 4)
	if err := cli.Send(packet.MsgDisconnect, payload); err != nil {
		t.Fatalf("Send: %v", err)
	}
	client.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("server Run did not return after a DISCONNECT")
	}
	if srv.Phase().Session != packet.StateError {
		t.Fatalf("session state = %v, want StateError after DISCONNECT", srv.Phase().Session)
	}
}
