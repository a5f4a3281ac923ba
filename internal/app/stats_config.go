package app

import (
	"fmt"
	"strings"
	"time"
)

// Location resolves the statistics timezone, defaulting to UTC.
func (c StatsConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "UTC") {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("stats.timezone: %w", err)
	}
	return loc, nil
}
