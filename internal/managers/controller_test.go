package managers

import (
	"context"
	"sync"
	"testing"

	"github.com/darrenwiens/env-canada/internal/storage"
	"github.com/darrenwiens/env-canada/pkg/config"
	"go.uber.org/zap"
)

func TestNewControllerManager(t *testing.T) {
	reg := newSourceManager(context.Background(), &sync.WaitGroup{}, config.AMQPData{}, nil, zap.NewNop().Sugar())

	tests := []struct {
		name        string
		controllers []config.ControllerData
		wantErr     bool
	}{
		{name: "none"},
		{name: "rest", controllers: []config.ControllerData{{Type: "rest", RESTServer: &config.RESTServerData{Port: 8080}}}},
		{name: "restserver without section", controllers: []config.ControllerData{{Type: "restserver"}}},
		{name: "unknown", controllers: []config.ControllerData{{Type: "aprs"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewControllerManager(context.Background(), &sync.WaitGroup{}, tt.controllers, reg, storage.NewHealthManager(), zap.NewNop().Sugar())
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
