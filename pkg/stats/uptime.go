package stats

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadStartupTime reads the persisted first-startup time from the
// single-line artifact at path so uptime survives restarts. A missing
// or unparseable file is rewritten with the current time.
func LoadStartupTime(path string) (time.Time, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		millis, perr := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
		if perr == nil && millis > 0 {
			return time.UnixMilli(millis), nil
		}
	} else if !os.IsNotExist(err) {
		return time.Time{}, fmt.Errorf("failed to read startup time file %q: %w", path, err)
	}

	// Truncate to the persisted precision so reloads return the exact
	// same instant.
	now := time.UnixMilli(time.Now().UnixMilli())
	line := strconv.FormatInt(now.UnixMilli(), 10) + "\n"
	if err := os.WriteFile(path, []byte(line), 0644); err != nil {
		return time.Time{}, fmt.Errorf("failed to write startup time file %q: %w", path, err)
	}
	return now, nil
}

// FormatUptime renders a duration as "1d 2h 3m 4s".
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int64(d.Hours()) / 24
	hours := int64(d.Hours()) % 24
	minutes := int64(d.Minutes()) % 60
	seconds := int64(d.Seconds()) % 60
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
}
