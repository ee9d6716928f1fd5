package main

import (
	"encoding/json"
	"net/http"

	"github.com/dgraph-io/badger/v3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"racetimed/pkg/actor"
	"racetimed/pkg/actors"
	"racetimed/pkg/cache"
	"racetimed/pkg/config"
	"racetimed/pkg/events"
	"racetimed/pkg/message"
	"racetimed/pkg/repository"
	"racetimed/pkg/storage"
	"racetimed/pkg/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// open database
	opts := badger.DefaultOptions(cfg.BadgerDir).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open db")
	}

	store := storage.New(db)
	repo := repository.New(store, cache.New(cache.NewBadgerTier(db)))
	elog := events.NewLog(db)

	broker := transport.NewBroker()
	dial := func(string) transport.Client { return transport.NewBrokerClient(broker) }

	sys := actor.NewSystem("racetimed")
	aggregator := sys.Spawn("results-aggregator", actors.NewResultsAggregator())

	var inbound *actor.PID
	transporter := sys.Spawn("transport-coordinator",
		actors.NewTransportCoordinator(dial, cfg.BrokerAddr, func() *actor.PID { return inbound }))

	athletes := sys.Spawn("athlete-coordinator", actors.NewAthleteCoordinator(repo, cfg.IdleTimeout))
	races := sys.Spawn("race-coordinator",
		actors.NewRaceCoordinator(repo, elog, transporter, aggregator, cfg.IdleTimeout))
	devices := sys.Spawn("device-coordinator", actors.NewDeviceCoordinator(repo))

	inbound = sys.Spawn("inbound-router",
		actor.NewRouter(actor.ConsistentHash, cfg.RouterPool, actors.NewInboundRouter(races)))

	// one standing subscription for every timing device feed
	if _, err := sys.Root().Request(transporter, message.CreateSubscriber{TopicFilter: "devices/#"}); err != nil {
		log.Err(err).Msg("failed to subscribe to device feeds")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// read-only diagnostics
	r.Get("/athletes", list(sys, athletes, message.GetAllAthletes{}))
	r.Get("/races", list(sys, races, message.GetAllRaces{}))
	r.Get("/devices", list(sys, devices, message.GetAllDevices{}))
	r.Get("/races/{id}/standings", func(w http.ResponseWriter, req *http.Request) {
		serve(w, sys, aggregator, message.GetStandings{RaceID: chi.URLParam(req, "id")})
	})
	r.Get("/subscribers", list(sys, transporter, message.GetAllSubscribers{}))

	// gracefull shutdown
	defer func() {
		sys.Shutdown()
		broker.Close()

		// database compact and stop
		log.Err(db.Flatten(4)).Msg("flatten on stop")
		log.Err(db.RunValueLogGC(0.5)).Msg("run value log gc")
		if err = db.Close(); err != nil {
			log.Err(err).Msg("failed to close badger db")
		}

		log.Info().Msg("racetimed stopped")
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("racetimed started")
	if err = http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Err(err).Msg("failed to close")
		return
	}
}

func list(sys *actor.System, pid *actor.PID, msg any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		serve(w, sys, pid, msg)
	}
}

func serve(w http.ResponseWriter, sys *actor.System, pid *actor.PID, msg any) {
	res, err := sys.Root().Request(pid, msg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}
