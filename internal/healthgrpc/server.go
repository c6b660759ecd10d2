package healthgrpc

import (
	"context"
	"net"
	"time"

	"road-damage-detector/pkg/models"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName имя сервиса в протоколе grpc.health.v1
const ServiceName = "roaddamage.Detector"

// Checker источник состояния сервиса инференса
type Checker interface {
	CheckHealth(ctx context.Context) (*models.HealthResponse, error)
}

// Server отдает состояние детектора по стандартному протоколу gRPC health
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     *logrus.Logger
}

// NewServer создает сервер. До первой проверки детектор считается недоступным.
func NewServer(logger *logrus.Logger) *Server {
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{
		grpcServer: grpcServer,
		health:     healthServer,
		logger:     logger,
	}
}

// SetServing переключает статус детектора
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
}

// Serve принимает соединения до вызова Stop
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Infof("gRPC health сервер слушает %s", lis.Addr())
	return s.grpcServer.Serve(lis)
}

// Stop переводит все сервисы в NOT_SERVING и останавливает сервер
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

// Watch опрашивает сервис инференса с заданным интервалом до отмены контекста
func (s *Server) Watch(ctx context.Context, checker Checker, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	serving := false
	for {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		_, err := checker.CheckHealth(checkCtx)
		cancel()

		ok := err == nil
		if ok != serving {
			if ok {
				s.logger.Info("Сервис инференса доступен")
			} else {
				s.logger.Warnf("Сервис инференса недоступен: %v", err)
			}
			serving = ok
		}
		s.SetServing(ok)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
