package commands

import "testing"

func TestBindAddress_EnvApplies(t *testing.T) {
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "9191")

	cmd := NewServeCmd()
	host, port := bindAddress(cmd, "127.0.0.1", 8080)
	if host != "0.0.0.0" || port != 9191 {
		t.Errorf("bindAddress = %s:%d, want 0.0.0.0:9191", host, port)
	}
}

func TestBindAddress_FlagsWin(t *testing.T) {
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "9191")

	cmd := NewServeCmd()
	if err := cmd.Flags().Set("host", "192.168.1.5"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("port", "3000"); err != nil {
		t.Fatal(err)
	}

	host, port := bindAddress(cmd, "192.168.1.5", 3000)
	if host != "192.168.1.5" || port != 3000 {
		t.Errorf("bindAddress = %s:%d, want 192.168.1.5:3000", host, port)
	}
}

func TestBindAddress_Defaults(t *testing.T) {
	t.Setenv("SERVER_HOST", "")
	t.Setenv("SERVER_PORT", "")

	cmd := NewServeCmd()
	host, port := bindAddress(cmd, "127.0.0.1", 8080)
	if host != "127.0.0.1" || port != 8080 {
		t.Errorf("bindAddress = %s:%d, want 127.0.0.1:8080", host, port)
	}
}
