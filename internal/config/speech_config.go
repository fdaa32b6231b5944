package config

import "time"

type SpeechConfig interface {
	GetLocation() *time.Location
	GetDefaultLocale() string
	GetSkillID() string
}

type Speech struct {
	s        Settings
	location *time.Location
}

var _ SpeechConfig = Speech{}

// GetLocation is the civil calendar used to compute day boundaries.
func (sp Speech) GetLocation() *time.Location {
	if sp.location == nil {
		return time.Local
	}
	return sp.location
}

func (sp Speech) GetDefaultLocale() string {
	if sp.s.DefaultLocale == "" {
		return "pt-BR"
	}
	return sp.s.DefaultLocale
}

func (sp Speech) GetSkillID() string {
	return sp.s.SkillID
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
