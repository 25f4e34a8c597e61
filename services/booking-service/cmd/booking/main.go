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
	"github.com/you/hostel-booking/pkg/mq"
	"github.com/you/hostel-booking/pkg/obs"
	"github.com/you/hostel-booking/services/booking-service/internal/repository"
	"github.com/you/hostel-booking/services/booking-service/internal/roomgw"
	"github.com/you/hostel-booking/services/booking-service/internal/service"
	thttp "github.com/you/hostel-booking/services/booking-service/internal/transport/http"
)

func main() {
	_ = godotenv.Load(".env")
	log := logger.New("booking-service")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	shutdownTracer := obs.InitTracer("booking-service")
	defer func() { _ = shutdownTracer(context.Background()) }()

	gdb := db.Open(cfg.PGBookingDSN)
	repo := repository.NewBookingRepo(gdb)
	if err := repo.Migrate(); err != nil {
		log.Fatal(err)
	}

	pub, err := mq.NewPublisher(cfg.RabbitURL, "services")
	if err != nil {
		log.Fatal(err)
	}
	defer pub.Close()
	if err := pub.DeclareQueue(service.QueueBookingInformation); err != nil {
		log.Fatal(err)
	}

	rooms := roomgw.New(cfg.RoomServiceURL, 5*time.Second)
	svc := service.NewBookingSvc(repo, rooms, pub, log)

	r := gin.Default()
	thttp.NewHandler(svc, log).Register(r)

	srv := &http.Server{Addr: cfg.BookingHTTPAddr, Handler: r}
	go func() {
		log.Infof("booking-service listening on %s", cfg.BookingHTTPAddr)
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
	log.Info("booking-service stopped")
}
