package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMockDrive_ValidateBudget(t *testing.T) {
	tests := []struct {
		name    string
		drive   MockDrive
		wantErr string
	}{
		{
			name: "components inside the drive duration",
			drive: MockDrive{
				DurationMinutes: 90,
				Aptitude:        AptitudeConfig{Enabled: true, DurationMinutes: 30},
				MachineTest:     MachineTestConfig{Enabled: true, DurationMinutes: 90},
			},
		},
		{
			name: "interview longer than the drive",
			drive: MockDrive{
				DurationMinutes: 60,
				Interview:       InterviewConfig{Enabled: true, DurationMinutes: 75},
			},
			wantErr: "interview duration of 75 minutes exceeds the drive duration of 60 minutes",
		},
		{
			name: "disabled component is ignored",
			drive: MockDrive{
				DurationMinutes: 60,
				MachineTest:     MachineTestConfig{DurationMinutes: 180},
			},
		},
		{
			name: "no overall duration",
			drive: MockDrive{
				Aptitude: AptitudeConfig{Enabled: true, DurationMinutes: 500},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.drive.ValidateBudget()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestMockDrive_AttemptDeadline(t *testing.T) {
	start := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	d := MockDrive{DurationMinutes: 90, DriveEnd: start.Add(8 * time.Hour)}
	assert.Equal(t, start.Add(90*time.Minute), d.AttemptDeadline(start))

	d.DriveEnd = start.Add(time.Hour)
	assert.Equal(t, start.Add(time.Hour), d.AttemptDeadline(start), "capped by the end of the drive")

	d.DurationMinutes = 0
	assert.Equal(t, start.Add(time.Hour), d.AttemptDeadline(start))

	assert.True(t, (&MockDrive{}).AttemptDeadline(start).IsZero())
}
