package main

import "testing"

func TestParseRedisOptions(t *testing.T) {
	tests := []struct {
		name     string
		conn     string
		addr     string
		password string
		tls      bool
	}{
		{name: "url", conn: "redis://:secret@localhost:6380/0", addr: "localhost:6380", password: "secret"},
		{name: "azure", conn: "cache.redis.cache.windows.net:6380,password=abc=,ssl=True,abortConnect=False", addr: "cache.redis.cache.windows.net:6380", password: "abc=", tls: true},
		{name: "plainAddr", conn: "localhost:6379", addr: "localhost:6379"},
		{name: "sslFalse", conn: "localhost:6379,ssl=false", addr: "localhost:6379"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseRedisOptions(tt.conn)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if opts.Addr != tt.addr {
				t.Fatalf("addr = %q, want %q", opts.Addr, tt.addr)
			}
			if opts.Password != tt.password {
				t.Fatalf("password = %q, want %q", opts.Password, tt.password)
			}
			if (opts.TLSConfig != nil) != tt.tls {
				t.Fatalf("tls = %v, want %v", opts.TLSConfig != nil, tt.tls)
			}
		})
	}
}
