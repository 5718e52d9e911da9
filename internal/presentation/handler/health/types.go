package health

// healthResponse reports liveness plus which store backing is serving.
type healthResponse struct {
	Status    string `json:"status"`
	Store     string `json:"store"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
}
