package getstartupapplication

import "startup-intake/internal/models"

type Input struct {
	ApplicationID int64 `json:"applicationId"`
}

type Output struct {
	Application   *models.Application `json:"application"`
	DocumentCount int                 `json:"documentCount"`
}
