package settings

import (
	"context"
	"testing"
)

func TestFromContext(t *testing.T) {
	stored := &Run{NoColor: true, Input: Input{Path: "viajes.yaml"}}

	tests := []struct {
		name     string
		ctx      context.Context
		wantOk   bool
		wantSame bool
	}{
		{
			name:     "context_with_settings",
			ctx:      IntoContext(context.Background(), stored),
			wantOk:   true,
			wantSame: true,
		},
		{
			name:   "context_without_settings",
			ctx:    context.Background(),
			wantOk: false,
		},
		{
			name:   "context_with_nil_settings",
			ctx:    IntoContext(context.Background(), nil),
			wantOk: false,
		},
		{
			name:   "context_with_wrong_type",
			ctx:    context.WithValue(context.Background(), settingsContextKey, "wrong type"),
			wantOk: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromContext(tt.ctx)
			if ok != tt.wantOk {
				t.Fatalf("FromContext() ok = %v; want %v", ok, tt.wantOk)
			}
			if tt.wantSame && got != stored {
				t.Error("FromContext() returned a different settings pointer")
			}
		})
	}
}

func TestOrDefault(t *testing.T) {
	stored := &Run{IsQuiet: true}
	if got := OrDefault(IntoContext(context.Background(), stored)); got != stored {
		t.Error("OrDefault() should return the stored settings")
	}

	got := OrDefault(context.Background())
	if got == nil || !got.ExitOnError || !got.Input.FromStdin {
		t.Errorf("OrDefault() = %+v; want CLI defaults", got)
	}
}
