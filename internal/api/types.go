package api

// AliveResponse is the body of GET /
type AliveResponse struct {
	Message string `json:"message" example:"alive"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string `json:"status" example:"ready"`
}
