package config

import (
    "errors"
    "fmt"
    "io/fs"
    "os"
    "time"

    "gopkg.in/yaml.v3"
)

// Schedule controls how the appointment calendar is seeded and who receives
// admin copies of booking notifications.  It is read from an optional YAML
// file; any field left empty keeps its default.
type Schedule struct {
    SeedDays     int      `yaml:"seed_days"`
    Times        []string `yaml:"times"`
    SkipWeekends *bool    `yaml:"skip_weekends"`
    AdminEmails  []string `yaml:"admin_emails"`
}

// DefaultSchedule is 30 days of weekday slots on the hour from 09:00 to 17:00.
func DefaultSchedule() Schedule {
    skip := true
    return Schedule{
        SeedDays:     30,
        Times:        []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00"},
        SkipWeekends: &skip,
    }
}

// LoadSchedule reads path and overlays it on DefaultSchedule.  A missing
// file is not an error.  Times must be HH:MM.
func LoadSchedule(path string) (Schedule, error) {
    s := DefaultSchedule()
    if path == "" {
        return s, nil
    }
    raw, err := os.ReadFile(path)
    if err != nil {
        if errors.Is(err, fs.ErrNotExist) {
            return s, nil
        }
        return s, fmt.Errorf("read schedule file: %w", err)
    }
    var file Schedule
    if err := yaml.Unmarshal(raw, &file); err != nil {
        return s, fmt.Errorf("parse schedule file: %w", err)
    }
    if file.SeedDays > 0 {
        s.SeedDays = file.SeedDays
    }
    if len(file.Times) > 0 {
        for _, t := range file.Times {
            if _, err := time.Parse("15:04", t); err != nil {
                return s, fmt.Errorf("schedule time %q: want HH:MM", t)
            }
        }
        s.Times = file.Times
    }
    if file.SkipWeekends != nil {
        s.SkipWeekends = file.SkipWeekends
    }
    if len(file.AdminEmails) > 0 {
        s.AdminEmails = file.AdminEmails
    }
    return s, nil
}

// WeekendsSkipped reports the effective weekend policy.
func (s Schedule) WeekendsSkipped() bool {
    return s.SkipWeekends == nil || *s.SkipWeekends
}
