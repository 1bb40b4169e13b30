package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aquilax/itemboard/jobqueue"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	config := NewConfig()
	if err := config.Load(args); err != nil {
		return err
	}
	// Platforms that set GO_ENV stamp log lines themselves.
	log := newLogger(config.Logging, os.Stdout, os.Getenv("GO_ENV") == "")

	db, err := openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	queue, err := openQueue(config.Queue)
	if err != nil {
		return err
	}
	defer queue.Close()

	board := NewItemBoard(config, log, db, queue, time.Now)

	runner := jobqueue.NewRunner(queue, log,
		jobqueue.WithSchedule(config.pollSchedule()),
		jobqueue.WithBatch(config.Queue.Batch))
	board.JobHandlers().Register(runner)
	if err := runner.Start(); err != nil {
		return err
	}
	defer runner.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              config.listenAddress(),
		Handler:           board.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
