package logger

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		wantErr bool
	}{
		{"debug", "text", false},
		{"info", "json", false},
		{"warn", "text", false},
		{"error", "json", false},
		{"verbose", "text", true},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			l, err := New(tt.level, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && l == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestGetZapLogger_BeforeInit(t *testing.T) {
	if GetZapLogger() == nil {
		t.Fatal("GetZapLogger() = nil before Init")
	}
	// Must not panic on the no-op logger
	Named("test").Info("ignored")
}
