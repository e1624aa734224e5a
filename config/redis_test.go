package config

import (
	"errors"
	"testing"
)

func TestRedisOptions(t *testing.T) {
	cases := []struct {
		name     string
		url      string
		addr     string
		wantAddr string
		wantErr  error
	}{
		{"url", "redis://:pw@cache:6380/2", "", "cache:6380", nil},
		{"bare url value", "cache:6379", "", "cache:6379", nil},
		{"addr", "", "localhost:6379", "localhost:6379", nil},
		{"none", "", "", "", ErrNotConfigured},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opt, err := redisOptions(tc.url, tc.addr)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if err != nil {
				return
			}
			if opt.Addr != tc.wantAddr || opt.ClientName != "yootranslate" {
				t.Fatalf("opt = %s/%s", opt.Addr, opt.ClientName)
			}
		})
	}
}
