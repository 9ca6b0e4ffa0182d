// Command pattern is the bring-up tool: it puts a static test pattern or
// gradient on the panel so wiring and bit-depth problems can be spotted
// before running the full daemon.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mclarke/hub75-matrix/internal/config"
	"github.com/mclarke/hub75-matrix/internal/render"
	"github.com/mclarke/hub75-matrix/pkg/hub75"
	"github.com/mclarke/hub75-matrix/pkg/pio"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to configuration file")
	software := flag.Bool("software", false, "Bit-bang through the GPIO character device instead of PIO/DMA")
	gradient := flag.Bool("gradient", false, "Show intensity gradients instead of the test pattern")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		cfg = config.DefaultConfig()
	}

	driverCfg, err := cfg.DriverConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	driver, err := hub75.New(cfg.Geometry(), driverCfg)
	if err != nil {
		log.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *software {
		tick := time.Duration(driverCfg.RowStepTimeUs) * time.Microsecond
		sink, err := pio.NewBitBangSink(cfg.Pins.Chip, cfg.PIOPins(), tick)
		if err != nil {
			log.Fatalf("Failed to open GPIO sink: %v", err)
		}
		defer sink.Close()
		go driver.RunSoftware(ctx, sink)
	} else {
		if err := driver.Start(cfg.Pins.Chip, cfg.PIOPins()); err != nil {
			log.Fatalf("Failed to start output engine: %v", err)
		}
	}

	if *gradient {
		log.Println("Showing gradient")
		render.DrawGradient(driver)
	} else {
		log.Println("Showing test pattern")
		render.DrawTestPattern(driver)
	}
	driver.Commit()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	cancel()
	driver.Clear()
	driver.Commit()
}
