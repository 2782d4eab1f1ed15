package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/julianstephens/abstain/internal/constants"
	"github.com/julianstephens/abstain/internal/models"
)

var settingsValidate *validator.Validate

func init() {
	settingsValidate = validator.New()
	_ = settingsValidate.RegisterValidation("ascending", validateAscending)
	_ = settingsValidate.RegisterValidation("location", validateLocation)
}

// validateLocation accepts any name time.LoadLocation understands, including "Local".
func validateLocation(fl validator.FieldLevel) bool {
	_, err := time.LoadLocation(fl.Field().String())
	return err == nil
}

// validateAscending reports whether an int slice is strictly increasing.
func validateAscending(fl validator.FieldLevel) bool {
	values, ok := fl.Field().Interface().([]int)
	if !ok {
		return false
	}
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return false
		}
	}
	return true
}

// ValidateSettings checks settings before they are saved or used.
func ValidateSettings(settings models.Settings) error {
	if err := settingsValidate.Struct(settings); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describeFieldError(fe))
			}
			return fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "min":
		return fmt.Sprintf("%s must not be empty", strings.ToLower(fe.Field()))
	case "gt":
		return fmt.Sprintf("%s must be positive", strings.ToLower(fe.Field()))
	case "ascending":
		return fmt.Sprintf("%s must be strictly ascending", strings.ToLower(fe.Field()))
	case "location":
		return fmt.Sprintf("unknown timezone %q", fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", strings.ToLower(fe.Field()), fe.Tag())
	}
}

// LoadSettings returns stored settings, falling back to defaults when none are saved.
func LoadSettings(ctx context.Context, a Adapter) (models.Settings, error) {
	data, err := a.Get(ctx, constants.SettingsKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.DefaultSettings(), nil
		}
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	var settings models.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return models.Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	models.ApplyDefaultSettings(&settings)
	return settings, nil
}

// SaveSettings validates and stores settings.
func SaveSettings(ctx context.Context, a Adapter, settings models.Settings) error {
	settings.Milestones = slices.Clone(settings.Milestones)
	if err := ValidateSettings(settings); err != nil {
		return err
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := a.Set(ctx, constants.SettingsKey, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
