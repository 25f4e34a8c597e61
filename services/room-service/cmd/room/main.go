package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/you/hostel-booking/pkg/config"
	"github.com/you/hostel-booking/pkg/db"
	"github.com/you/hostel-booking/pkg/logger"
	"github.com/you/hostel-booking/pkg/obs"
	"github.com/you/hostel-booking/services/room-service/internal/repository"
	"github.com/you/hostel-booking/services/room-service/internal/service"
	thttp "github.com/you/hostel-booking/services/room-service/internal/transport/http"
)

func main() {
	_ = godotenv.Load(".env")
	log := logger.New("room-service")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	shutdownTracer := obs.InitTracer("room-service")
	defer func() { _ = shutdownTracer(context.Background()) }()

	gdb := db.Open(cfg.PGRoomDSN)
	repo := repository.NewAvailableDateRepo(gdb)
	if err := repo.Migrate(); err != nil {
		log.Fatal(err)
	}

	svc := service.NewAvailableDateSvc(repo)

	r := gin.Default()
	thttp.NewHandler(svc, log).Register(r)

	srv := &http.Server{Addr: cfg.RoomHTTPAddr, Handler: r}
	go func() {
		log.Infof("room-service listening on %s", cfg.RoomHTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("room-service stopped")
}
