package models

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/julianstephens/abstain/internal/constants"
)

// DefaultSettings returns the settings used before anything has been saved.
func DefaultSettings() Settings {
	return Settings{
		Milestones: slices.Clone(constants.DefaultMilestones),
		Timezone:   constants.DefaultTimezone,
	}
}

// ApplyDefaultSettings applies default values to missing settings.
func ApplyDefaultSettings(settings *Settings) {
	if len(settings.Milestones) == 0 {
		settings.Milestones = slices.Clone(constants.DefaultMilestones)
	}
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
}

// ApplySetting sets a single setting from its string form.
func ApplySetting(settings *Settings, key, value string) error {
	switch key {
	case constants.SettingMilestones:
		milestones, err := ParseMilestones(value)
		if err != nil {
			return err
		}
		settings.Milestones = milestones
	case constants.SettingTimezone:
		settings.Timezone = strings.TrimSpace(value)
	default:
		return fmt.Errorf("unknown setting: %s", key)
	}
	return nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingMilestones: FormatMilestones(settings.Milestones),
		constants.SettingTimezone:   settings.Timezone,
	}
}

// ParseMilestones parses a comma-separated list of day thresholds, e.g. "1,3,7".
func ParseMilestones(s string) ([]int, error) {
	var milestones []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid milestone %q: %w", part, err)
		}
		milestones = append(milestones, n)
	}
	if len(milestones) == 0 {
		return nil, fmt.Errorf("milestone list cannot be empty")
	}
	return milestones, nil
}

// FormatMilestones formats thresholds as a comma-separated list.
func FormatMilestones(milestones []int) string {
	parts := make([]string, len(milestones))
	for i, m := range milestones {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ",")
}
