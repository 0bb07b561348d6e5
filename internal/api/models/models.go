// Package models holds the request and response bodies of the HTTP API.
package models

// HealthData is the body of GET /api/health.
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

// HealthResponse wraps HealthData.
type HealthResponse struct {
	Body HealthData
}

// VersionData is the body of GET /api/version.
type VersionData struct {
	Version   string `json:"version" example:"v1.2.0" doc:"Release version"`
	GitCommit string `json:"git_commit" doc:"Commit the binary was built from"`
	BuildDate string `json:"build_date" doc:"Build timestamp"`
	GoVersion string `json:"go_version" doc:"Go toolchain version"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Target OS and architecture"`
}

// VersionResponse wraps VersionData.
type VersionResponse struct {
	Body VersionData
}

// WhoAmIData is the body of GET /api/whoami.
type WhoAmIData struct {
	Username string `json:"username" example:"admin" doc:"Authenticated user"`
	Admin    bool   `json:"admin" doc:"Whether the user has admin rights"`
}

// WhoAmIResponse wraps WhoAmIData.
type WhoAmIResponse struct {
	Body WhoAmIData
}

// ServiceData describes one configured service endpoint.
type ServiceData struct {
	Name    string `json:"name" example:"discovery" doc:"Service name from the configuration"`
	Address string `json:"address" example:"http://localhost:9000/services/discovery" doc:"Absolute address"`
	Path    string `json:"path,omitempty" example:"/services/discovery" doc:"Relative path, if the address was relative"`
}

// ServicesData is the body of GET /api/services.
type ServicesData struct {
	Domain   string        `json:"domain" example:"http://localhost:9000" doc:"Base address for relative paths"`
	Services []ServiceData `json:"services" doc:"Configured services sorted by name"`
}

// ServicesResponse wraps ServicesData.
type ServicesResponse struct {
	Body ServicesData
}

// LogsRequest holds the query parameters of GET /api/logs.
type LogsRequest struct {
	Limit int `query:"limit" minimum:"0" default:"100" doc:"Maximum number of lines, newest last; 0 returns all"`
}

// LogLine is one buffered log line.
type LogLine struct {
	Time  string `json:"time" doc:"When the line was emitted"`
	Level string `json:"level" example:"info" doc:"Level name"`
	Text  string `json:"text" doc:"Rendered line"`
}

// LogsData is the body of GET /api/logs.
type LogsData struct {
	Lines []LogLine `json:"lines" doc:"Recent log lines, oldest first"`
	Total int       `json:"total" doc:"Lines emitted since startup"`
}

// LogsResponse wraps LogsData.
type LogsResponse struct {
	Body LogsData
}
