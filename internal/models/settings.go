package models

// Settings represents application-wide settings
type Settings struct {
	Milestones []int  `json:"milestones" yaml:"milestones" validate:"required,min=1,ascending,dive,gt=0"` // ascending thresholds in days
	Timezone   string `json:"timezone" yaml:"timezone" validate:"omitempty,location"`                     // IANA timezone name used for display, or "Local"
}
