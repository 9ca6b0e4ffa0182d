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
	"github.com/mclarke/hub75-matrix/internal/heartbeat"
	"github.com/mclarke/hub75-matrix/internal/render"
	"github.com/mclarke/hub75-matrix/internal/types"
	"github.com/mclarke/hub75-matrix/pkg/hub75"
	"github.com/mclarke/hub75-matrix/pkg/pio"
	"github.com/mclarke/hub75-matrix/pkg/pixel"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to configuration file")
	software := flag.Bool("software", false, "Bit-bang through the GPIO character device instead of PIO/DMA")
	splash := flag.String("splash", "", "SVG splash screen to show at startup")
	text := flag.String("text", "", "Text to scroll instead of the default scene")
	flag.Parse()

	// Load configuration, falling back to defaults if the file is absent
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		log.Printf("No configuration at %s, using defaults", *configPath)
		cfg = config.DefaultConfig()
	}

	driverCfg, err := cfg.DriverConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create driver
	driver, err := hub75.New(cfg.Geometry(), driverCfg)
	if err != nil {
		log.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the output engine
	if *software {
		tick := time.Duration(driverCfg.RowStepTimeUs) * time.Microsecond
		sink, err := pio.NewBitBangSink(cfg.Pins.Chip, cfg.PIOPins(), tick)
		if err != nil {
			log.Fatalf("Failed to open GPIO sink: %v", err)
		}
		defer sink.Close()
		go func() {
			if err := driver.RunSoftware(ctx, sink); err != nil && ctx.Err() == nil {
				log.Printf("Software engine stopped: %v", err)
			}
		}()
		log.Println("Started software output engine")
	} else {
		if err := driver.Start(cfg.Pins.Chip, cfg.PIOPins()); err != nil {
			log.Fatalf("Failed to start output engine: %v", err)
		}
		log.Println("Started PIO/DMA output engine")
	}

	// Show splash screen if configured
	if *splash != "" {
		if err := render.DrawSVG(driver, *splash); err != nil {
			log.Printf("Failed to draw splash: %v", err)
		} else {
			driver.Commit()
			time.Sleep(2 * time.Second)
		}
	}

	// Start heartbeat
	if cfg.Heartbeat.LED != "" {
		hb, err := heartbeat.New(cfg.Heartbeat.LED, time.Duration(cfg.Heartbeat.PeriodMs)*time.Millisecond)
		if err != nil {
			log.Printf("Heartbeat disabled: %v", err)
		} else {
			go hb.Run(ctx)
		}
	}

	// Start renderer
	renderer := render.NewRenderer(driver, cfg.Display.RefreshRate)
	if *text != "" {
		tr, err := render.NewTextRenderer(cfg.Display.FontPath, 12)
		if err != nil {
			log.Fatalf("Failed to create text renderer: %v", err)
		}
		renderer.SetScene(render.ScrollText(tr, *text, pixel.White))
	} else {
		renderer.SetScene(func(c types.Canvas, frame int) error {
			render.DrawChecker(c, frame/8, 8, pixel.Red, pixel.Blue)
			return nil
		})
	}
	go func() {
		if err := renderer.Start(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Renderer stopped: %v", err)
		}
	}()

	// Handle shutdown gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutting down...")
	cancel()
	driver.Clear()
	driver.Commit()
}
