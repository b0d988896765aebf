package providers

import "time"

// Helpers shared by the per-vendor normalizers. All mapping tables are
// total: every vendor value lands on exactly one canonical value and
// unrecognized values fall through to an explicit default, so future
// vendor states never leave a field unmapped.

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getFloat(m map[string]interface{}, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

// epochMillis converts a vendor epoch-milliseconds value to a time,
// zero when absent.
func epochMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// durationBetween computes whole seconds between start and end, returning
// 0 when the end time is missing or precedes the start. Calls that are
// still running always report 0, never an error.
func durationBetween(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// nonNegative clamps derived integers; canonical cost and duration are
// never negative regardless of what the vendor reports.
func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
