package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/example/roombook/internal/application/usecases"
	"github.com/example/roombook/internal/domain/booking"
)

//go:embed templates/*.html static/*
var fs embed.FS

// BookingService is the slice of usecases.BookingService the handlers drive.
type BookingService interface {
	Book(ctx context.Context, req booking.Request) (booking.AdHocBooking, error)
	RequestGrant(ctx context.Context, req booking.GrantRequest) (booking.RecurringGrant, error)
	Week(ctx context.Context, offset int) booking.WeekGrid
	Status(ctx context.Context) (usecases.StatusBoard, error)
}

type Server struct {
	Bookings    BookingService
	Flash       *FlashStore
	Log         logrus.FieldLogger
	HorizonDays int
	Now         func() time.Time

	BaseURL string
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(accessLog(s.Log))
	r.Use(middleware.Recoverer)

	r.Handle("/static/*", http.FileServer(http.FS(fs)))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	r.Get("/", s.handleHome)
	r.Post("/bookings", s.handleBookingCreate)
	r.Post("/grants", s.handleGrantCreate)

	r.Route("/api", func(r chi.Router) {
		r.Post("/bookings", s.apiBook)
		r.Post("/grants", s.apiGrant)
		r.Get("/week", s.apiWeek)
		r.Get("/status", s.apiStatus)
	})

	return r
}

func (s *Server) today() time.Time {
	if s.Now == nil {
		return booking.Day(time.Now())
	}
	return booking.Day(s.Now())
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	t, err := template.New("").Funcs(funcs).ParseFS(fs,
		"templates/base.html",
		name,
	)
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		s.Log.WithError(err).Error("render failed")
	}
}

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
}

func Start(ctx context.Context, addr string, h http.Handler, log logrus.FieldLogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
