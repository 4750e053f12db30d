package cache

import (
	"testing"
	"time"
)

func TestSetGetDelete(t *testing.T) {
	c := New(time.Minute, time.Minute)

	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok || got.(string) != "v" {
		t.Fatalf("expected v, got %v (ok=%v)", got, ok)
	}

	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected key to be gone after delete")
	}
}

func TestSetWithTTLExpires(t *testing.T) {
	c := New(time.Minute, time.Minute)

	c.SetWithTTL("short", 42, 10*time.Millisecond)
	if _, ok := c.Get("short"); !ok {
		t.Fatal("expected key to exist right after set")
	}

	time.Sleep(25 * time.Millisecond)
	if _, ok := c.Get("short"); ok {
		t.Fatal("expected key to expire")
	}
}

func TestKeyBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"tenant", TenantKey("acme"), "tenant:acme"},
		{"settings", SettingsKey("t1"), "settings:t1"},
		{"course", CourseKey("t1", "c1"), "course:t1:c1"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s key = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}
