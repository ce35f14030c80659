package capture

import (
	"errors"
	"testing"
)

func TestNewCamera(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"default device", DefaultConfig()},
		{"second device", Config{DeviceID: 1, Width: 1280, Height: 720}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(tt.config)
			if cam == nil {
				t.Fatal("NewCamera returned nil")
			}
			if got := cam.FPS(); got != DefaultIdleFPS {
				t.Errorf("FPS() = %d, want %d", got, DefaultIdleFPS)
			}
			if cam.IsOpen() {
				t.Error("camera should not be open initially")
			}
		})
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(DefaultConfig())

	tests := []struct {
		name    string
		fps     int
		wantFPS int
	}{
		{"set to 10", 10, 10},
		{"set to 30", 30, 30},
		{"zero keeps previous", 0, 30},
		{"negative keeps previous", -5, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam.SetFPS(tt.fps)
			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
		})
	}
}

func TestCamera_ReadFrameNotOpen(t *testing.T) {
	cam := NewCamera(DefaultConfig())

	frame, err := cam.ReadFrame()
	if !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want %v", err, ErrCameraNotOpen)
	}
	if frame != nil {
		t.Error("ReadFrame() returned a frame from a closed camera")
	}
}

func TestCamera_CloseNotOpen(t *testing.T) {
	cam := NewCamera(DefaultConfig())
	if err := cam.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestPatternCamera(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	cam := NewPatternCamera(64, 48, []uint8{0, 255}, false)

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Fatalf("ReadFrame() before Open error = %v", err)
	}
	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	for i, want := range []uint8{0, 255} {
		frame, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if frame.Rows() != 48 || frame.Cols() != 64 {
			t.Errorf("frame %d: size %dx%d", i, frame.Cols(), frame.Rows())
		}
		if got := frame.GetVecbAt(10, 10)[0]; got != want {
			t.Errorf("frame %d: level %d, want %d", i, got, want)
		}
		frame.Close()
	}

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("ReadFrame() past end error = %v, want %v", err, ErrNoFrame)
	}
}

func TestPatternCamera_Loop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	cam := NewPatternCamera(16, 16, []uint8{10}, true)
	cam.Open()
	defer cam.Close()

	for i := 0; i < 3; i++ {
		frame, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		frame.Close()
	}
}
