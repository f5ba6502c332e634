// Command echosim runs a built-in demonstration scenario through the
// event-driven radar simulation engine: a monostatic pulsed radar at the
// origin observing a point target flying a linear track. Output goes to the
// selected sink; a PSD plot of the first receiver's output can be rendered
// for a quick look at the result.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/banshee-data/echosim/internal/config"
	"github.com/banshee-data/echosim/internal/diag"
	"github.com/banshee-data/echosim/internal/finalize"
	"github.com/banshee-data/echosim/internal/geo"
	"github.com/banshee-data/echosim/internal/noise"
	"github.com/banshee-data/echosim/internal/radar"
	"github.com/banshee-data/echosim/internal/signal"
	"github.com/banshee-data/echosim/internal/sim"
	"github.com/banshee-data/echosim/internal/sink"
	"github.com/banshee-data/echosim/internal/timing"
	"github.com/banshee-data/echosim/internal/world"
)

func main() {
	var (
		endTime    = flag.Float64("end", 0.5, "simulation end time in seconds")
		rate       = flag.Float64("rate", 10000, "output sampling rate in Hz")
		seed       = flag.Uint64("seed", 1, "master random seed")
		adcBits    = flag.Int("adc-bits", 0, "ADC bits (0 normalizes to unit peak)")
		sinkKind   = flag.String("sink", "csv", "output sink: csv, sqlite, parquet, or none")
		outDir     = flag.String("out", ".", "output directory")
		configPath = flag.String("config", "", "optional JSON run config overriding the flags")
		plotPath   = flag.String("plot", "", "optional PSD plot PNG of the receiver output")
		verbose    = flag.Bool("v", false, "enable engine logging")
	)
	flag.Parse()

	if *verbose {
		sim.SetLogWriters(os.Stderr, nil)
		finalize.SetLogWriter(os.Stderr)
	}

	params := world.DefaultParameters()
	params.EndTime = *endTime
	params.Rate = *rate
	params.RandomSeed = *seed
	params.ADCBits = *adcBits
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg.Apply(&params)
	}

	w, err := buildDemoScenario(params)
	if err != nil {
		log.Fatalf("build scenario: %v", err)
	}

	memFactory, memories := sink.MemoryFactory()
	factory, cleanup, err := selectSink(*sinkKind, *outDir, params, memFactory)
	if err != nil {
		log.Fatalf("open sink: %v", err)
	}
	defer cleanup()

	summary, err := sim.Run(w, sim.Config{
		Sinks: factory,
		Progress: func(msg string, done, total int) {
			if *verbose {
				fmt.Fprintf(os.Stderr, "\r%s (%d/%d)", msg, done, total)
			}
		},
	})
	if *verbose {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		log.Fatalf("simulation failed: %v", err)
	}

	fmt.Printf("run %s complete: %d events dispatched\n", summary.RunID, summary.EventsDispatched)
	for rx, chunks := range summary.ChunksEmitted {
		fmt.Printf("  %s: %d chunks, %d samples\n", rx, chunks, summary.SamplesEmitted[rx])
	}

	if *plotPath != "" {
		mem, ok := memories["radar-rx"]
		if !ok || len(mem.Chunks()) == 0 {
			log.Fatalf("plot requested but no in-memory output captured (use -sink none)")
		}
		var samples []complex128
		for _, c := range mem.Chunks() {
			samples = append(samples, c.Samples...)
		}
		if err := diag.PlotPSD(samples, params.Rate, "receiver output PSD", *plotPath); err != nil {
			log.Fatalf("plot: %v", err)
		}
		fmt.Printf("wrote %s\n", *plotPath)
	}
}

// selectSink maps the -sink flag to a sink factory and its cleanup.
func selectSink(kind, dir string, params world.Parameters, mem sink.Factory) (sink.Factory, func(), error) {
	switch kind {
	case "none":
		return mem, func() {}, nil
	case "csv":
		return sink.CSVFactory(filepath.Join(dir, "%s_results.csv"), params.Rate), func() {}, nil
	case "sqlite":
		store, err := sink.OpenStore(filepath.Join(dir, "echosim.db"), params.RandomSeed)
		if err != nil {
			return nil, nil, err
		}
		return store.Factory(), func() { store.Close() }, nil
	case "parquet":
		return sink.ParquetFactory(filepath.Join(dir, "%s_results.parquet"), params.RandomSeed), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown sink kind %q", kind)
}

// buildDemoScenario assembles the demonstration world: a monostatic pulsed
// radar at the origin and a 1 m^2 Swerling target crossing at 200 m/s.
func buildDemoScenario(params world.Parameters) (*world.World, error) {
	w := world.New(params)

	site := geo.NewPath(geo.InterpStatic)
	site.AddCoord(geo.Coord{})
	if err := site.Finalize(); err != nil {
		return nil, err
	}
	siteRot := geo.NewRotationPath(geo.InterpStatic)
	siteRot.AddCoord(geo.RotationCoord{})
	if err := siteRot.Finalize(); err != nil {
		return nil, err
	}
	sitePlatform, err := radar.NewPlatform("radar-site", site, siteRot)
	if err != nil {
		return nil, err
	}
	w.AddPlatform(sitePlatform)

	ant := radar.NewIsotropicAntenna("iso")
	if err := w.AddAntenna(ant); err != nil {
		return nil, err
	}

	proto := &timing.Prototype{
		Name:      "xo",
		Frequency: 10e9,
		Entries:   []noise.AlphaEntry{{Alpha: 2, Weight: 1e-9}},
	}
	if err := w.AddTimingPrototype(proto); err != nil {
		return nil, err
	}

	pulseSamples := make([]complex128, 64)
	for i := range pulseSamples {
		pulseSamples[i] = 1
	}
	pulse, err := signal.NewPulse("rect-pulse", 1000, 10e9,
		float64(len(pulseSamples))/params.Rate,
		signal.NewSignal(pulseSamples, params.Rate, params.OversampleRatio))
	if err != nil {
		return nil, err
	}
	if err := w.AddSignal(pulse); err != nil {
		return nil, err
	}

	tx, err := radar.NewTransmitter(radar.TransmitterConfig{
		Name: "radar-tx", Platform: sitePlatform, Antenna: ant,
		Timing: timing.New(proto, w.NextSeed()),
		Mode:   radar.Pulsed, PRF: 50, Signal: pulse,
	})
	if err != nil {
		return nil, err
	}
	if err := w.AddTransmitter(tx); err != nil {
		return nil, err
	}

	rx, err := radar.NewReceiver(radar.ReceiverConfig{
		Name: "radar-rx", Platform: sitePlatform, Antenna: ant,
		Timing: timing.New(proto, w.NextSeed()),
		Mode:   radar.Pulsed,
		// 10 ms windows repeating at the 50 Hz PRF.
		WindowLength:     10e-3,
		WindowPRF:        50,
		NoiseTemperature: 290,
		Seed:             w.NextSeed(),
	})
	if err != nil {
		return nil, err
	}
	if err := radar.AttachMonostatic(tx, rx); err != nil {
		return nil, err
	}
	w.AddReceiver(rx)

	track := geo.NewPath(geo.InterpLinear)
	track.AddCoord(geo.Coord{Pos: geo.Vec3{X: 3000, Y: -200}, T: 0})
	track.AddCoord(geo.Coord{Pos: geo.Vec3{X: 3000, Y: 200}, T: 2})
	if err := track.Finalize(); err != nil {
		return nil, err
	}
	trackRot := geo.NewRotationPath(geo.InterpStatic)
	trackRot.AddCoord(geo.RotationCoord{})
	if err := trackRot.Finalize(); err != nil {
		return nil, err
	}
	tgtPlatform, err := radar.NewPlatform("bogey", track, trackRot)
	if err != nil {
		return nil, err
	}
	w.AddPlatform(tgtPlatform)

	tgt, err := radar.NewIsoTarget(tgtPlatform, "bogey-rcs", 1.0, w.NextSeed())
	if err != nil {
		return nil, err
	}
	if err := tgt.SetChiSquareFluctuation(2); err != nil {
		return nil, err
	}
	w.AddTarget(tgt)

	return w, nil
}
