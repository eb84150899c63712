package sink

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestNewPublisher_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewPublisher should panic with nil redis client")
		}
	}()
	NewPublisher(nil, 0, zerolog.Nop())
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		wantAddr string
		wantErr  bool
	}{
		{name: "host port", addr: "localhost:6379", wantAddr: "localhost:6379"},
		{name: "url", addr: "redis://cache.internal:6380/2", wantAddr: "cache.internal:6380"},
		{name: "empty", addr: "", wantErr: true},
		{name: "bad url", addr: "redis://host:6379/notadb", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.addr)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}
			defer c.Close()
			if c.Options().Addr != tt.wantAddr {
				t.Errorf("Addr = %q, want %q", c.Options().Addr, tt.wantAddr)
			}
		})
	}
}

func TestPublish_NilDataset(t *testing.T) {
	p := NewPublisher(redis.NewClient(&redis.Options{Addr: "localhost:0"}), 0, zerolog.Nop())
	defer p.Close()

	if err := p.Publish(context.Background(), Key{}, nil); err == nil {
		t.Error("Expected error for nil dataset")
	}
}

func TestPublish_Unreachable(t *testing.T) {
	// Port 1 is reserved and refuses connections.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	p := NewPublisher(client, 0, zerolog.Nop())
	defer p.Close()

	g := newTestGrid(t)
	if err := p.Publish(context.Background(), Key{YearMin: 2020, YearMax: 2020, BodyMin: 1, BodyMax: 1}, g); err == nil {
		t.Error("Expected error when Redis is unreachable")
	}
}
