// Command bridgesockd is a small conformance-test harness: it mounts a
// SockJS endpoint at /echo (echoes every message back to the sender)
// and one at /close (closes every session immediately after Open), the
// same pair of endpoints the upstream sockjs-protocol test suite points
// at a reference server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	sockjs "github.com/bridgesock/bridgesock"
)

func main() {
	port := getEnv("PORT", "8081")
	tlsCertFile := os.Getenv("TLS_CERT_FILE")
	tlsKeyFile := os.Getenv("TLS_KEY_FILE")
	redisAddr := os.Getenv("REDIS_ADDR")

	log.Println("Starting bridgesockd...")

	mux := http.NewServeMux()

	echoOpts := sockjs.Options{
		SessionFactory: func() sockjs.Handler { return echoHandler{} },
	}
	if redisAddr != "" {
		log.Printf("Redis broadcast bridge enabled at %s", redisAddr)
		echoOpts.Redis = &redis.Options{Addr: redisAddr}
	}
	echo := sockjs.NewDispatcher("/echo", echoOpts)
	echo.Start()
	defer echo.Stop()
	mux.Handle("/echo/", echo)

	closeDisp := sockjs.NewDispatcher("/close", sockjs.Options{
		SessionFactory: func() sockjs.Handler { return closeHandler{} },
	})
	closeDisp.Start()
	defer closeDisp.Stop()
	mux.Handle("/close/", closeDisp)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0, // streaming transports hold the connection open
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		var err error
		if tlsCertFile != "" && tlsKeyFile != "" {
			log.Printf("bridgesockd listening on :%s (TLS)", port)
			err = srv.ListenAndServeTLS(tlsCertFile, tlsKeyFile)
		} else {
			log.Printf("bridgesockd listening on :%s", port)
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("received %v, shutting down", sig)

	shutdownTimeout := 10 * time.Second
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			shutdownTimeout = time.Duration(secs) * time.Second
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	} else {
		log.Println("shut down cleanly")
	}
}

// echoHandler sends every inbound message straight back to its sender.
type echoHandler struct{ sockjs.BaseHandler }

func (echoHandler) Handle(s *sockjs.Session, msg string) { s.Send(msg) }

// closeHandler closes every session the instant it is opened, per the
// sockjs-protocol test suite's "close" endpoint contract.
type closeHandler struct{ sockjs.BaseHandler }

func (closeHandler) Opened(s *sockjs.Session) { s.Close() }

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
