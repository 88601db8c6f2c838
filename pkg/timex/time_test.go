package timex

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTime_UnixMethods(t *testing.T) {
	// Create a fixed time
	// 创建一个固定时间
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tt := Time(now)

	if tt.Unix() != now.Unix() {
		t.Errorf("Unix() = %v, want %v", tt.Unix(), now.Unix())
	}
	if tt.UnixMilli() != now.UnixMilli() {
		t.Errorf("UnixMilli() = %v, want %v", tt.UnixMilli(), now.UnixMilli())
	}
	if tt.UnixMicro() != now.UnixMicro() {
		t.Errorf("UnixMicro() = %v, want %v", tt.UnixMicro(), now.UnixMicro())
	}
	if tt.UnixNano() != now.UnixNano() {
		t.Errorf("UnixNano() = %v, want %v", tt.UnixNano(), now.UnixNano())
	}

	// Verify it's not returning time.Now() by waiting a bit
	// 通过等待一会确认它不是返回 time.Now()
	time.Sleep(10 * time.Millisecond)
	if tt.Unix() != now.Unix() {
		t.Errorf("Unix() changed after sleep, it should be static. got %v, want %v", tt.Unix(), now.Unix())
	}
}

func TestTime_JSONRoundTrip(t *testing.T) {
	src := Time(time.Date(2024, 5, 20, 8, 30, 0, 0, time.Local))

	data, err := json.Marshal(src)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(data) != `"2024-05-20 08:30:00"` {
		t.Errorf("Marshal = %s", data)
	}

	var dst Time
	if err := json.Unmarshal(data, &dst); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if dst.Unix() != src.Unix() {
		t.Errorf("round trip mismatch: got %v, want %v", dst.Unix(), src.Unix())
	}
}

func TestTime_ScanString(t *testing.T) {
	var tt Time
	if err := tt.Scan("2024-05-20 08:30:00"); err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if tt.Format("2006-01-02") != "2024-05-20" {
		t.Errorf("Scan result = %v", tt)
	}

	// 零值
	var zero Time
	if err := zero.Scan(nil); err != nil {
		t.Fatalf("Scan nil error: %v", err)
	}
	if !zero.IsZero() {
		t.Errorf("Scan(nil) should produce zero time")
	}
}
