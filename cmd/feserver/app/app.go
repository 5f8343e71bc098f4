package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/deepspace-ra/kband-frontend/internal/frontend"
	"github.com/deepspace-ra/kband-frontend/internal/hardware"
	"github.com/deepspace-ra/kband-frontend/internal/protocol"
	"github.com/deepspace-ra/kband-frontend/internal/server"
	"github.com/deepspace-ra/kband-frontend/internal/storage"
)

const storageDir = "data"

// Run wires the front end, dispatcher, storage and control server together
// and serves until the context is cancelled.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	cal, err := config.Calibration()
	if err != nil {
		return fmt.Errorf("failed to load calibration: %w", err)
	}

	fe, err := createFrontEnd(config, cal, logger)
	if err != nil {
		return fmt.Errorf("failed to create front end: %w", err)
	}

	store, err := createStorage(&config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer store.Close()

	sessionID, err := store.CreateSession(ctx, config.Receiver.Mode.String(), config)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	dispatcher := protocol.NewDispatcher(fe,
		protocol.WithLogger(logger),
		protocol.WithMinicalReads(config.Receiver.MinicalReads),
	)

	srv := server.New(dispatcher,
		server.WithLogger(logger),
		server.WithStore(store, sessionID),
	)

	addr, err := srv.Listen(config.Server.Listen)
	if err != nil {
		return err
	}
	defer srv.Stop()

	logger.Info("front end ready",
		slog.String("mode", config.Receiver.Mode.String()),
		slog.String("passband", describePassband(fe)),
		slog.Int64("session", sessionID),
	)

	if config.Server.MDNS {
		port := addr.(*net.TCPAddr).Port
		shutdown, err := server.Announce(config.Server.Instance, port, []string{
			"mode=" + config.Receiver.Mode.String(),
			"passband=" + describePassband(fe),
		})
		if err != nil {
			return fmt.Errorf("failed to announce service: %w", err)
		}
		defer shutdown()
	}

	return srv.Serve(ctx)
}

func createFrontEnd(config *Config, cal frontend.Calibration, logger *slog.Logger) (*frontend.FrontEnd, error) {
	options := []func(*frontend.FrontEnd){frontend.WithLogger(logger)}

	if config.Receiver.Mode == ModeHardware {
		// No DAQ driver is wired in yet; hardware mode reports every
		// operation as unavailable instead of quietly simulating.
		logger.Warn("hardware mode requested but no DAQ adapter is available")
		options = append(options, frontend.WithHardware(hardware.Unavailable{}))
	}

	return frontend.New(cal, options...)
}

func createStorage(config *StorageConfig) (storage.Store, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	dbPath := filepath.Join(wd, storageDir)
	if config.DataDirectory != "" {
		if filepath.IsAbs(config.DataDirectory) {
			dbPath = config.DataDirectory
		} else {
			dbPath = filepath.Join(wd, config.DataDirectory)
		}
	}

	stat, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage directory '%s' does not exist: %w", dbPath, err)
		}
		return nil, fmt.Errorf("checking storage directory '%s': %w", dbPath, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dbPath)
	}

	dbPath = filepath.Join(dbPath, fmt.Sprintf("kfe_session_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	return storage.NewSqliteStore(dbPath), nil
}

func describePassband(fe *frontend.FrontEnd) string {
	center, unit := humanize.ComputeSI(fe.CenterFrequencyGHz() * 1e9)
	width, widthUnit := humanize.ComputeSI(fe.BandwidthGHz() * 1e9)
	return strconv.FormatFloat(center, 'f', -1, 64) + " " + unit + "Hz ± " +
		strconv.FormatFloat(width/2, 'f', -1, 64) + " " + widthUnit + "Hz"
}
