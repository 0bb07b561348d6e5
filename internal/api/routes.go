package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/opentaxii-core/internal/address"
	"github.com/smazurov/opentaxii-core/internal/api/models"
	"github.com/smazurov/opentaxii-core/internal/version"
)

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{Status: "ok", Message: "API is healthy"},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   info.Version,
				GitCommit: info.GitCommit,
				BuildDate: info.BuildDate,
				GoVersion: info.GoVersion,
				Platform:  info.Platform,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "whoami",
		Method:      http.MethodGet,
		Path:        "/api/whoami",
		Summary:     "Current user",
		Description: "Return the account behind the supplied Basic Auth credentials",
		Tags:        []string{"auth"},
		Security:    withAuth(),
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*models.WhoAmIResponse, error) {
		account, ok := AccountFrom(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("Authentication required")
		}
		return &models.WhoAmIResponse{
			Body: models.WhoAmIData{Username: account.Username, Admin: account.Admin},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-services",
		Method:      http.MethodGet,
		Path:        "/api/services",
		Summary:     "Services",
		Description: "List configured services with relative paths resolved against the domain",
		Tags:        []string{"services"},
		Security:    withAuth(),
		Errors:      []int{http.StatusUnauthorized},
	}, func(_ context.Context, _ *struct{}) (*models.ServicesResponse, error) {
		return &models.ServicesResponse{Body: s.servicesData()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "recent-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent logs",
		Description: "Return the most recent rendered log lines",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{http.StatusUnauthorized},
	}, func(_ context.Context, input *models.LogsRequest) (*models.LogsResponse, error) {
		return &models.LogsResponse{Body: s.logsData(input.Limit)}, nil
	})
}

func (s *Server) servicesData() models.ServicesData {
	s.mu.RLock()
	domain := s.domain
	names := make([]string, 0, len(s.services))
	for name := range s.services {
		names = append(names, name)
	}
	sort.Strings(names)
	services := make([]models.ServiceData, 0, len(names))
	for _, name := range names {
		resolved := address.Resolve(domain, s.services[name])
		services = append(services, models.ServiceData{
			Name:    name,
			Address: resolved.Full,
			Path:    resolved.Path,
		})
	}
	s.mu.RUnlock()

	return models.ServicesData{Domain: domain, Services: services}
}

func (s *Server) logsData(limit int) models.LogsData {
	data := models.LogsData{Lines: []models.LogLine{}}
	if s.logs == nil {
		return data
	}

	lines := s.logs.Lines()
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	for _, l := range lines {
		data.Lines = append(data.Lines, models.LogLine{
			Time:  l.Time.UTC().Format(time.RFC3339Nano),
			Level: l.Level,
			Text:  l.Text,
		})
	}
	data.Total = s.logs.Total()
	return data
}
