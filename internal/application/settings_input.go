package application

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/space-reservation/internal/availability"
)

// buildSettings converts caller input into validated rules. An empty list
// yields the single default rule.
func buildSettings(inputs []SettingInput) ([]availability.Setting, error) {
	if len(inputs) == 0 {
		return []availability.Setting{availability.DefaultSetting()}, nil
	}

	vErr := &ValidationError{}
	settings := make([]availability.Setting, 0, len(inputs))
	for i, input := range inputs {
		setting, fieldErr := buildSetting(fmt.Sprintf("settings[%d]", i), input)
		if fieldErr.HasErrors() {
			vErr.merge(fieldErr)
			continue
		}
		settings = append(settings, setting)
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	if _, err := availability.NewSettings(settings); err != nil {
		if errors.Is(err, availability.ErrDuplicatePriorityOrder) {
			return nil, err
		}
		vErr.add("settings", err.Error())
		return nil, vErr
	}
	return settings, nil
}

func buildSetting(prefix string, input SettingInput) (availability.Setting, *ValidationError) {
	vErr := &ValidationError{}
	setting := availability.DefaultSetting()
	setting.PriorityOrder = input.PriorityOrder

	startText := strings.TrimSpace(input.StartTime)
	endText := strings.TrimSpace(input.EndTime)
	if startText != "" || endText != "" {
		start, end := setting.Slot.Start(), setting.Slot.End()
		var err error
		if startText != "" {
			if start, err = availability.ParseTimeOfDay(startText); err != nil {
				vErr.add(prefix+".start_time", "must be HH:MM")
			}
		}
		if endText != "" {
			if end, err = availability.ParseTimeOfDay(endText); err != nil {
				vErr.add(prefix+".end_time", "must be HH:MM")
			}
		}
		if !vErr.HasErrors() {
			slot, err := availability.NewTimeSlot(start, end)
			if err != nil {
				vErr.add(prefix+".end_time", "must be after start_time")
			} else {
				setting.Slot = slot
			}
		}
	}

	days, err := availability.ParseWeekdays(input.Weekdays)
	if err != nil {
		vErr.add(prefix+".weekdays", err.Error())
	} else {
		setting.Weekdays = days
	}

	setting.Unit = durationOrDefault(input.TimeUnit, availability.DefaultUnit)
	setting.MinDuration = durationOrDefault(input.MinDuration, availability.DefaultMinDuration)
	setting.MaxDuration = durationOrDefault(input.MaxDuration, availability.DefaultMaxDuration)

	if setting.Unit <= 0 {
		vErr.add(prefix+".time_unit", "must be positive")
	}
	if setting.MinDuration <= 0 {
		vErr.add(prefix+".minimum_duration", "must be positive")
	}
	if setting.MaxDuration < setting.MinDuration {
		vErr.add(prefix+".maximum_duration", "must not be shorter than minimum_duration")
	}
	if vErr.HasErrors() {
		return availability.Setting{}, vErr
	}
	return setting, nil
}

func durationOrDefault(value, fallback time.Duration) time.Duration {
	if value == 0 {
		return fallback
	}
	return value
}
