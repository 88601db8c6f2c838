// Package timex 提供可序列化的时间类型
package timex

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const layout = "2006-01-02 15:04:05"

// Time 数据库与 JSON 共用的时间类型
type Time time.Time

// Now 返回当前时间
func Now() Time {
	return Time(time.Now())
}

func (t Time) Time() time.Time {
	return time.Time(t)
}

func (t Time) IsZero() bool {
	return time.Time(t).IsZero()
}

func (t Time) Unix() int64 {
	return time.Time(t).Unix()
}

func (t Time) UnixMilli() int64 {
	return time.Time(t).UnixMilli()
}

func (t Time) UnixMicro() int64 {
	return time.Time(t).UnixMicro()
}

func (t Time) UnixNano() int64 {
	return time.Time(t).UnixNano()
}

func (t Time) Format(l string) string {
	return time.Time(t).Format(l)
}

func (t Time) String() string {
	return time.Time(t).Format(layout)
}

// MarshalJSON 输出 "2006-01-02 15:04:05" 格式
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.String() + `"`), nil
}

func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == `""` || s == "null" {
		*t = Time(time.Time{})
		return nil
	}
	parsed, err := time.ParseInLocation(`"`+layout+`"`, s, time.Local)
	if err != nil {
		return err
	}
	*t = Time(parsed)
	return nil
}

// Value 实现 driver.Valuer
func (t Time) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return time.Time(t), nil
}

// Scan 实现 sql.Scanner
func (t *Time) Scan(v interface{}) error {
	switch value := v.(type) {
	case time.Time:
		*t = Time(value)
		return nil
	case []byte:
		return t.scanString(string(value))
	case string:
		return t.scanString(value)
	case nil:
		*t = Time(time.Time{})
		return nil
	default:
		return fmt.Errorf("cannot convert %v to timex.Time", v)
	}
}

func (t *Time) scanString(s string) error {
	if s == "" {
		*t = Time(time.Time{})
		return nil
	}
	parsed, err := time.ParseInLocation(layout, s, time.Local)
	if err != nil {
		// sqlite 可能带纳秒与时区信息
		parsed, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
	}
	*t = Time(parsed)
	return nil
}
