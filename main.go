package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/aquametrics/aquametrics/config"
	"github.com/aquametrics/aquametrics/engine"
	"github.com/aquametrics/aquametrics/ledger"
	"github.com/aquametrics/aquametrics/mirror"
	"github.com/aquametrics/aquametrics/models"
	"github.com/aquametrics/aquametrics/routes"
	"github.com/aquametrics/aquametrics/store"
	"github.com/aquametrics/aquametrics/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.RewardEntry{}, &models.Post{})

	if err := utils.LoadCropData(cfg.CropDataPath); err != nil {
		utils.Sugar.Warnf("crop dataset unavailable (%s): %v", cfg.CropDataPath, err)
	}

	recordStore := store.NewGormStore(db)
	ledgerClient := ledger.NewRPCClient(
		cfg.LedgerRPCURL,
		cfg.LedgerContractAddress,
		cfg.LedgerWalletAddress,
		time.Duration(cfg.MirrorAttemptTimeoutSec)*time.Second,
	)

	ledgerMirror := mirror.New(recordStore, ledgerClient, utils.Sugar, mirror.Options{
		Workers:        cfg.MirrorWorkers,
		Attempts:       cfg.MirrorAttempts,
		AttemptTimeout: time.Duration(cfg.MirrorAttemptTimeoutSec) * time.Second,
		SweepInterval:  time.Duration(cfg.MirrorSweepIntervalSec) * time.Second,
	})
	ledgerMirror.Start()

	eng := engine.New(recordStore, ledgerMirror, utils.BcryptHasher{}, utils.OtpSender{}, utils.Sugar)

	r := routes.SetupRouter(db, eng)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	err := utils.GraceServer(":"+cfg.AppPort, r)

	// Let in-flight mirror jobs land before exiting.
	ledgerMirror.Stop()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
