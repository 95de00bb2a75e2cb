package main

import (
	"context"
	"log"
	"syscall"
	"time"
	"voting-ledger/internal/config"
	"voting-ledger/internal/handler"
	"voting-ledger/internal/logging"
	"voting-ledger/internal/metrics"
	"voting-ledger/internal/ports/http"

	"github.com/hyperledger/sawtooth-sdk-go/processor"
	"go.uber.org/zap"
)

func main() {
	logger, err := logging.NewLogger(config.GetLogLevel())
	if err != nil {
		log.Fatalln("setting up the logger failed: ", err)
		return
	}
	defer logger.Sync()

	logger.Info("transaction processor started", zap.String("validator", config.GetValidatorAddr()))

	m := metrics.New()
	ser := http.NewServer(logger, m.Handler(), config.GetMetricsAddr())
	go func() {
		if err := ser.Run(); err != nil {
			logger.Error("failed to run the metrics server: " + err.Error())
		}
	}()

	tp := processor.NewTransactionProcessor(config.GetValidatorAddr())
	tp.AddHandler(handler.NewVotingHandler(logger, m))
	if threads := config.GetProcessorThreads(); threads > 0 {
		tp.SetThreadCount(uint(threads))
	}
	tp.ShutdownOnSignal(syscall.SIGINT, syscall.SIGTERM)

	if err := tp.Start(); err != nil {
		logger.Error("transaction processor stopped: " + err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ser.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down the metrics server: " + err.Error())
	}

	logger.Info("transaction processor finished")
}
