package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MarcGrol/paymentsession/lib/myhttpclient"
	"github.com/MarcGrol/paymentsession/lib/mylog"
	"github.com/MarcGrol/paymentsession/lib/mystore"
	"github.com/MarcGrol/paymentsession/lib/mytime"
	"github.com/MarcGrol/paymentsession/lib/myuuid"
	"github.com/MarcGrol/paymentsession/services/paymentbackend"
	"github.com/MarcGrol/paymentsession/services/paymentsession"
	"github.com/MarcGrol/paymentsession/services/paymentsession/sessioninfo"
	"github.com/MarcGrol/paymentsession/services/sessioncheck"
)

func main() {
	c := context.Background()

	// A missing .env is fine: the environment may be set otherwise
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("Error loading .env: %s", err)
	}

	port := getEnvOrDefault("PORT", "8080")

	router := mux.NewRouter()

	paymentStore, paymentStoreCleanup, err := mystore.New[paymentbackend.Payment](c)
	if err != nil {
		log.Fatalf("Error creating payment store: %s", err)
	}
	defer paymentStoreCleanup()

	backendCfg, err := backendConfig()
	if err != nil {
		log.Fatalf("Error reading backend config: %s", err)
	}
	err = paymentbackend.NewWebService(backendCfg, paymentStore, mytime.RealNower{}, myuuid.RealUUIDer{}).RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering payment backend: %s", err)
	}

	sessionCfg, err := paymentsession.ConfigFromEnv()
	if err != nil {
		log.Fatalf("Error reading payment session config: %s", err)
	}
	if os.Getenv("PAYMENT_BACKEND_URL") == "" {
		sessionCfg.BackendBaseURL = fmt.Sprintf("http://localhost:%s/api", port)
	}
	fetcher := sessioninfo.NewFetcher(sessionCfg.BackendBaseURL, myhttpclient.New(), mylog.New("sessioninfo"))
	err = sessioncheck.NewWebService(sessionCfg, fetcher).RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering session check: %s", err)
	}

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	startWebServerBlocking(port, router)
}

func backendConfig() (paymentbackend.Config, error) {
	expiry, err := time.ParseDuration(getEnvOrDefault("PAYMENT_EXPIRY", "15m"))
	if err != nil {
		return paymentbackend.Config{}, fmt.Errorf("PAYMENT_EXPIRY is invalid: %w", err)
	}

	return paymentbackend.Config{
		ClientKey:       getEnvOrDefault("PAYMENT_CLIENT_KEY", "test_client_key"),
		WidgetScriptURL: getEnvOrDefault("PAYMENT_WIDGET_SCRIPT_URL", "https://cdn.example.com/checkout/widget.js"),
		Expiry:          expiry,
	}, nil
}

func getEnvOrDefault(name string, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return defaultValue
	}
	return value
}

func startWebServerBlocking(port string, router *mux.Router) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Starting webserver on port %s (try http://localhost:%s/payment-status?order_id=demo&result=success)", port, port)
	err := srv.ListenAndServe()
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
