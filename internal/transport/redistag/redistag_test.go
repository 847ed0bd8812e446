package redistag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/argonur/S7PLC-PID-simulation/internal/transport"
)

func TestDialFailsWhenUnreachable(t *testing.T) {
	d := &Dialer{
		Addr:   "127.0.0.1:1", // nothing listens here
		Key:    "plantsim:tags",
		Fields: map[string]string{"MV": "mv", "PV": "pv"},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := d.Dial(ctx); err == nil {
		t.Error("expected dial error against closed port")
	}
}

func TestUnknownTag(t *testing.T) {
	s := &session{
		rdb:    redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}),
		key:    "plantsim:tags",
		fields: map[string]string{"MV": "mv"},
	}
	defer s.Close(context.Background())

	if _, err := s.Read(context.Background(), "bogus"); !errors.Is(err, transport.ErrUnknownTag) {
		t.Errorf("Read(bogus) = %v, want ErrUnknownTag", err)
	}
	if err := s.Write(context.Background(), "bogus", 1.0); !errors.Is(err, transport.ErrUnknownTag) {
		t.Errorf("Write(bogus) = %v, want ErrUnknownTag", err)
	}
}
