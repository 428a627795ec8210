package dbconn

import (
	"strings"
	"testing"
)

func TestParseEngine(t *testing.T) {
	tests := []struct {
		in      string
		want    Engine
		wantErr bool
	}{
		{"", MySQL, false},
		{"mysql", MySQL, false},
		{"MariaDB", MySQL, false},
		{"postgres", Postgres, false},
		{" PostgreSQL ", Postgres, false},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		got, err := ParseEngine(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEngine(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEngine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseHost(t *testing.T) {
	tests := []struct {
		name     string
		engine   Engine
		host     string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"empty defaults to loopback", MySQL, "", "127.0.0.1", 3306, false},
		{"plain host", MySQL, "db.internal", "db.internal", 3306, false},
		{"host with port", MySQL, "db.internal:3307", "db.internal", 3307, false},
		{"postgres default port", Postgres, "pg", "pg", 5432, false},
		{"ipv6 with port", Postgres, "[::1]:6543", "::1", 6543, false},
		{"bare ipv6", MySQL, "::1", "::1", 3306, false},
		{"bad port", MySQL, "db:abc", "", 0, true},
		{"port out of range", MySQL, "db:70000", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, p, err := ParseHost(tt.engine, tt.host)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHost() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if h != tt.wantHost || p != tt.wantPort {
				t.Errorf("ParseHost() = %q, %d, want %q, %d", h, p, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestTarget_MySQLConfig(t *testing.T) {
	target, err := NewTarget(MySQL, "10.0.0.5:3307", "root", "p@ss/word?x=1")
	if err != nil {
		t.Fatal(err)
	}
	cfg := target.WithDatabase("shop").MySQLConfig()

	if cfg.Addr != "10.0.0.5:3307" || cfg.Net != "tcp" {
		t.Errorf("Addr/Net = %q/%q", cfg.Addr, cfg.Net)
	}
	if cfg.User != "root" || cfg.Passwd != "p@ss/word?x=1" {
		t.Errorf("credentials not carried verbatim: %q/%q", cfg.User, cfg.Passwd)
	}
	if cfg.DBName != "shop" || !cfg.ParseTime {
		t.Errorf("DBName = %q, ParseTime = %v", cfg.DBName, cfg.ParseTime)
	}
	if target.Database != "" {
		t.Error("WithDatabase must not modify the receiver")
	}
}

func TestTarget_PgxConfig(t *testing.T) {
	target, err := NewTarget(Postgres, "pg.local", "app", "secret")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := target.WithDatabase("shop").PgxConfig()
	if err != nil {
		t.Fatalf("PgxConfig() error = %v", err)
	}
	if cfg.Host != "pg.local" || cfg.Port != 5432 {
		t.Errorf("Host/Port = %q/%d", cfg.Host, cfg.Port)
	}
	if cfg.User != "app" || cfg.Password != "secret" || cfg.Database != "shop" {
		t.Errorf("unexpected config: user=%q db=%q", cfg.User, cfg.Database)
	}
}

func TestTarget_StringMasksPassword(t *testing.T) {
	target := Target{Engine: MySQL, Host: "h", Port: 3306, Username: "u", Password: "hunter2", Database: "d"}
	s := target.String()
	if strings.Contains(s, "hunter2") {
		t.Errorf("String() leaks password: %s", s)
	}
	if !strings.Contains(s, "MASKED") {
		t.Errorf("String() = %s, want MASKED placeholder", s)
	}
}
