// Package ptrx provides small helpers for moving between values and
// pointers, mostly for optional struct fields and nullable columns.
package ptrx

import "time"

// String returns a pointer to v.
func String(v string) *string {
	return &v
}

// StringValue returns the value of p, or "" if p is nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

// BoolValue returns the value of p, or false if p is nil.
func BoolValue(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}

// IntValue returns the value of p, or 0 if p is nil.
func IntValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// Time returns a pointer to v.
func Time(v time.Time) *time.Time {
	return &v
}

// TimeValue returns the value of p, or the zero time if p is nil.
func TimeValue(p *time.Time) time.Time {
	if p == nil {
		return time.Time{}
	}
	return *p
}
